package utils

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("February", 2024)
	if err != nil {
		t.Fatalf("MonthRange error: %v", err)
	}
	if start.Month() != time.February || start.Day() != 1 {
		t.Fatalf("unexpected start %v", start)
	}
	// 2024 is a leap year.
	if end.Day() != 29 {
		t.Fatalf("expected leap-year end on the 29th, got %v", end)
	}

	if _, _, err := MonthRange("Smarch", 2024); err == nil {
		t.Fatal("expected an error for an invalid month name")
	}

	// Case-insensitive.
	if _, _, err := MonthRange("  december ", 2023); err != nil {
		t.Fatalf("MonthRange should trim and lowercase: %v", err)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 12.5 ")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	if d.String() != "12.5" {
		t.Fatalf("expected 12.5, got %s", d)
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Fatal("expected an error for an empty string")
	}
}

func TestRandomPassword_LengthAndAlphabet(t *testing.T) {
	pw, err := RandomPassword(10)
	if err != nil {
		t.Fatalf("RandomPassword error: %v", err)
	}
	if len(pw) != 10 {
		t.Fatalf("expected 10 characters, got %d", len(pw))
	}
	for _, r := range pw {
		found := false
		for _, a := range passwordAlphabet {
			if r == a {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("character %q outside alphabet", r)
		}
	}
}

func TestRandomOTP_SixDigits(t *testing.T) {
	otp, err := RandomOTP()
	if err != nil {
		t.Fatalf("RandomOTP error: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("expected 6 digits, got %q", otp)
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in OTP", r)
		}
	}
}
