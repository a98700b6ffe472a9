package validate

import (
	"encoding/json"
	"testing"

	"github.com/jonwraymond/apikit/apierr"
)

type signupInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
	Age   int    `json:"age" validate:"min=18"`
}

type profileInput struct {
	Contact struct {
		City string `json:"city" validate:"required"`
	} `json:"contact"`
}

func TestStruct_ValidInput(t *testing.T) {
	s := Struct(signupInput{})

	value, errs := s.Validate(map[string]any{
		"email": "a@example.com",
		"name":  "Ada",
		"age":   30,
	})
	if len(errs) > 0 {
		t.Fatalf("Validate() errors = %v", errs)
	}

	typed, ok := value.(*signupInput)
	if !ok {
		t.Fatalf("Validate() returned %T, want *signupInput", value)
	}
	if typed.Email != "a@example.com" || typed.Name != "Ada" || typed.Age != 30 {
		t.Errorf("decoded value = %+v", typed)
	}
}

func TestStruct_ListsEveryFailingField(t *testing.T) {
	s := Struct(signupInput{})

	_, errs := s.Validate(map[string]any{
		"email": "not-an-email",
		"age":   12,
	})
	if len(errs) != 3 {
		t.Fatalf("got %d field errors %v, want 3", len(errs), errs)
	}

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Message
	}
	for _, field := range []string{"email", "name", "age"} {
		if _, ok := byField[field]; !ok {
			t.Errorf("missing error for field %q: %v", field, errs)
		}
	}
}

func TestStruct_NestedFieldPathsDotJoined(t *testing.T) {
	s := Struct(profileInput{})

	_, errs := s.Validate(map[string]any{"contact": map[string]any{}})
	if len(errs) != 1 {
		t.Fatalf("got %v, want one error", errs)
	}
	if errs[0].Field != "contact.city" {
		t.Errorf("Field = %q, want contact.city", errs[0].Field)
	}
}

func TestStruct_AcceptsRawJSON(t *testing.T) {
	s := Struct(signupInput{})

	value, errs := s.Validate(json.RawMessage(`{"email":"a@example.com","name":"Ada","age":21}`))
	if len(errs) > 0 {
		t.Fatalf("Validate() errors = %v", errs)
	}
	if value.(*signupInput).Age != 21 {
		t.Errorf("decoded value = %+v", value)
	}
}

func TestStruct_NilInputReportsRequiredFields(t *testing.T) {
	s := Struct(signupInput{})

	_, errs := s.Validate(nil)
	if len(errs) == 0 {
		t.Fatal("nil input with required fields should fail")
	}
}

func TestStruct_InvalidJSONType(t *testing.T) {
	s := Struct(signupInput{})

	_, errs := s.Validate(map[string]any{"email": "a@example.com", "name": "Ada", "age": "old"})
	if len(errs) == 0 {
		t.Fatal("type mismatch should fail")
	}
	if errs[0].Field != "age" {
		t.Errorf("Field = %q, want age", errs[0].Field)
	}
}

func TestSchemaFunc(t *testing.T) {
	called := false
	s := SchemaFunc(func(input any) (any, []apierr.FieldError) {
		called = true
		return input, nil
	})

	if _, errs := s.Validate("x"); len(errs) > 0 || !called {
		t.Error("SchemaFunc should delegate to the function")
	}
}

func TestStruct_PanicsOnNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Struct(42) should panic")
		}
	}()
	Struct(42)
}
