package domain_test

import (
	"errors"
	"testing"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.Amount
		wantErr bool
	}{
		{name: "whole units", input: "100", want: 10000},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "zero", input: "0", want: 0},
		{name: "negative parses signed", input: "-5", want: -500},
		{name: "surrounding whitespace", input: " 7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "three decimals", input: "1.234", wantErr: true},
		{name: "comma separator", input: "1,50", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q): expected error, got %d", tt.input, got)
				}
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Errorf("ParseAmount(%q): error is not ErrInvalidAmount: %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountString(t *testing.T) {
	tests := []struct {
		amount domain.Amount
		want   string
	}{
		{amount: 10000, want: "100.00"},
		{amount: 1234, want: "12.34"},
		{amount: -50, want: "-0.50"},
		{amount: 0, want: "0.00"},
	}

	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.want {
			t.Errorf("Amount(%d).String() = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
