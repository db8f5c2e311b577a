package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// --- searchParams Tests ---

func newSearchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	addLocationFlags(flags)
	flags.Int("adults", 0, "")
	flags.Int("children", 0, "")
	flags.Int("infants", 0, "")
	flags.Int("pets", 0, "")
	flags.Float64("min-price", 0, "")
	flags.Float64("max-price", 0, "")
	flags.String("cursor", "", "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func TestSearchParams_UnsetFlagsStayNil(t *testing.T) {
	p := searchParams(newSearchFlags(t, "-l", "Lisbon"))

	if p.Location != "Lisbon" {
		t.Errorf("Location = %q, want Lisbon", p.Location)
	}
	if p.Checkin != nil || p.Checkout != nil || p.Adults != nil || p.MinPrice != nil || p.Cursor != nil || p.PropertyType != nil {
		t.Errorf("unset flags should leave fields nil: %+v", p)
	}
}

func TestSearchParams_ExplicitZeroIsKept(t *testing.T) {
	p := searchParams(newSearchFlags(t,
		"-l", "Porto",
		"--checkin", "2030-06-01",
		"--checkout", "2030-06-05",
		"--adults", "2",
		"--pets", "0",
		"--min-price", "0",
		"--max-price", "150.5",
		"--type", "Entire home",
		"--cursor", "abc",
	))

	if p.Checkin == nil || *p.Checkin != "2030-06-01" {
		t.Errorf("Checkin = %v", p.Checkin)
	}
	if p.Checkout == nil || *p.Checkout != "2030-06-05" {
		t.Errorf("Checkout = %v", p.Checkout)
	}
	if p.Adults == nil || *p.Adults != 2 {
		t.Errorf("Adults = %v", p.Adults)
	}
	if p.Pets == nil || *p.Pets != 0 {
		t.Errorf("Pets = %v, want explicit 0", p.Pets)
	}
	if p.Children != nil {
		t.Errorf("Children = %v, want nil", *p.Children)
	}
	if p.MinPrice == nil || *p.MinPrice != 0 {
		t.Errorf("MinPrice = %v, want explicit 0", p.MinPrice)
	}
	if p.MaxPrice == nil || *p.MaxPrice != 150.5 {
		t.Errorf("MaxPrice = %v", p.MaxPrice)
	}
	if p.PropertyType == nil || *p.PropertyType != "Entire home" {
		t.Errorf("PropertyType = %v", p.PropertyType)
	}
	if p.Cursor == nil || *p.Cursor != "abc" {
		t.Errorf("Cursor = %v", p.Cursor)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// --- Command Tree Tests ---

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"search", "stats", "detail", "calendar", "reviews", "host", "occupancy", "serve", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (got %v, %v)", name, cmd, err)
		}
	}
}

func TestSearchCommand_RequiresLocation(t *testing.T) {
	f := searchCmd.Flags().Lookup("location")
	if f == nil {
		t.Fatal("location flag missing")
	}
	if f.Shorthand != "l" {
		t.Errorf("shorthand = %q, want l", f.Shorthand)
	}
	if _, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; !ok {
		t.Error("location should be marked required")
	}
}
