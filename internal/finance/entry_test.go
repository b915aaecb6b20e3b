package finance

import "testing"

func TestManualEntryValidate(t *testing.T) {
	valid := ManualEntry{
		Type:        EntryExpense,
		Description: "Product restock",
		AmountCents: 45000,
		Date:        "2026-03-10",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ManualEntry)
	}{
		{"unknown type", func(e *ManualEntry) { e.Type = "refund" }},
		{"empty description", func(e *ManualEntry) { e.Description = "   " }},
		{"zero amount", func(e *ManualEntry) { e.AmountCents = 0 }},
		{"negative amount", func(e *ManualEntry) { e.AmountCents = -100 }},
		{"bad date", func(e *ManualEntry) { e.Date = "10/03/2026" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := valid
			tc.mutate(&entry)
			if err := entry.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestManualEntryValidateTrimsDescription(t *testing.T) {
	entry := ManualEntry{
		Type:        EntryIncome,
		Description: "  Gift card sale  ",
		AmountCents: 5000,
		Date:        "2026-03-01",
	}
	if err := entry.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Description != "Gift card sale" {
		t.Fatalf("expected trimmed description, got %q", entry.Description)
	}
}
