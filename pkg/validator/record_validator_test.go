package validator

import "testing"

type contact struct {
	Name  string `validate:"required" label:"Name"`
	Email string `validate:"required,email" label:"Email"`
	Phone string `validate:"omitempty,max=5"`
}

func TestRecordValidatorAcceptsValidRecord(t *testing.T) {
	v := NewRecordValidator()

	result := v.Validate(contact{Name: "Jane", Email: "jane@x.com"})
	if !result.IsValid || len(result.Errors) != 0 {
		t.Fatalf("expected valid record, got %+v", result.Errors)
	}
}

func TestRecordValidatorReportsEveryField(t *testing.T) {
	v := NewRecordValidator()

	result := v.Validate(contact{Email: "not-an-email", Phone: "1234567"})
	if result.IsValid {
		t.Fatalf("expected invalid record")
	}

	want := []string{
		"Name is required",
		"Email must be a valid email address",
		"Phone must be at most 5 characters",
	}
	if len(result.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %+v", len(want), result.Errors)
	}
	for i, msg := range want {
		if result.Errors[i].Message != msg {
			t.Fatalf("error %d: expected %q, got %q", i, msg, result.Errors[i].Message)
		}
	}
	if result.Errors[1].Field != "Email" || result.Errors[1].Value != "not-an-email" {
		t.Fatalf("unexpected field metadata: %+v", result.Errors[1])
	}
}
