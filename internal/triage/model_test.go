package triage

import (
	"errors"
	"testing"
)

func TestNewCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{name: "keep", input: "keep", want: CategoryKeep},
		{name: "delete", input: "delete", want: CategoryDelete},
		{name: "favorite", input: "favorite", want: CategoryFavorite},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "archive", wantErr: true},
		{name: "case-sensitive", input: "Keep", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, err := NewCategory(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !errors.Is(err, ErrInvalidCategory) {
					t.Fatalf("expected ErrInvalidCategory, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if category != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, category)
			}
		})
	}
}

func TestUndoRecordPrevious(t *testing.T) {
	withPrevious := UndoRecord{HasPrevious: true, PreviousCategory: "keep"}
	previous, ok := withPrevious.previous()
	if !ok || previous != CategoryKeep {
		t.Fatalf("expected keep, got %q ok=%v", previous, ok)
	}

	withoutPrevious := UndoRecord{}
	if _, ok := withoutPrevious.previous(); ok {
		t.Fatalf("expected no previous category")
	}
}
