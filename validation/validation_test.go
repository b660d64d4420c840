package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{"empty", "", false},
		{"below minimum", "ab", false},
		{"at minimum", "abc", true},
		{"typical", "johndoe", true},
		{"at maximum", strings.Repeat("x", 20), true},
		{"above maximum", strings.Repeat("x", 21), false},
		{"multibyte runes counted as characters", "ありがとう", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Username(tt.username))
		})
	}
}

func TestEmail(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"minimal valid", "a@b.com", true},
		{"typical", "john.doe@example.org", true},
		{"missing at", "ab.com", false},
		{"missing domain dot", "a@bcom", false},
		{"empty local part", "@b.com", false},
		{"space in local part", "a b@c.com", false},
		{"two at signs", "a@b@c.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Email(tt.email))
		})
	}
}

func TestPassword(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		password string
		role     string
		want     bool
	}{
		{"six chars for user", "short1", "user", false},
		{"ten chars for user", "longenough", "user", true},
		{"eleven chars for admin", "longenough1", "admin", false},
		{"twelve chars for admin", "longenough12", "admin", true},
		{"eight chars for guest", "12345678", "guest", true},
		{"seven chars for guest", "1234567", "guest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Password(tt.password, tt.role))
		})
	}
}

func TestValidateForm_Valid(t *testing.T) {
	rules := DefaultRules()

	result := rules.ValidateForm(Form{
		Username: "anna",
		Email:    "anna@example.com",
		Password: "longenough",
		Role:     "user",
	})

	assert.True(t, result.IsValid)
	require.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidateForm_CollectsOneMessagePerFailingField(t *testing.T) {
	rules := DefaultRules()

	result := rules.ValidateForm(Form{
		Username: "ab",
		Email:    "not-an-email",
		Password: "short",
		Role:     "superuser",
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors, FieldUsername)
	assert.Contains(t, result.Errors, FieldEmail)
	assert.Contains(t, result.Errors, FieldPassword)
	assert.Contains(t, result.Errors, FieldRole)
}

func TestValidateForm_AdminPasswordThreshold(t *testing.T) {
	rules := DefaultRules()

	// Eleven characters pass for an ordinary user but not for an admin.
	form := Form{
		Username: "rootuser",
		Email:    "root@example.com",
		Password: "elevenchars",
		Role:     "admin",
	}

	result := rules.ValidateForm(form)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, FieldPassword)

	form.Role = "user"
	result = rules.ValidateForm(form)
	assert.True(t, result.IsValid)
}

func TestResult_FailKeepsFirstMessage(t *testing.T) {
	result := NewResult()
	result.Fail(FieldUsername, "first")
	result.Fail(FieldUsername, "second")

	assert.False(t, result.IsValid)
	assert.Equal(t, "first", result.Errors[FieldUsername])
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("admin"))
	assert.True(t, ValidRole("user"))
	assert.True(t, ValidRole("guest"))
	assert.False(t, ValidRole("root"))
	assert.False(t, ValidRole(""))
}
