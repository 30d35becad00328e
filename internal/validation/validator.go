package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return "invalid request"
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"

	defaultCurrency = "BDT"
	defaultLanguage = "bn"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Currency string
	Language string
}

// ValidateRegister normalizes and validates a registration payload.
// Currency defaults to BDT and language to bn, matching the web client.
func ValidateRegister(in RegisterInput) (RegisterInput, ValidationErrors) {
	var errs ValidationErrors

	in.Name = strings.TrimSpace(in.Name)
	if len(in.Name) < 2 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at least 2 characters"})
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(in.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "invalid email address"})
	}

	if len(in.Password) < 6 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}

	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}

	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	if in.Language == "" {
		in.Language = defaultLanguage
	}
	if in.Language != "bn" && in.Language != "en" {
		errs = append(errs, FieldError{Field: "language", Message: "language must be bn or en"})
	}

	return in, errs
}

type LoginInput struct {
	Email    string
	Password string
}

func ValidateLogin(in LoginInput) (LoginInput, ValidationErrors) {
	var errs ValidationErrors

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(in.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "invalid email address"})
	}

	if in.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return in, errs
}

type TransactionInput struct {
	Amount     decimal.Decimal
	Type       string
	CategoryID uuid.UUID
	Date       time.Time
	Notes      *string
}

// ValidateTransaction checks a create/update payload: positive amount,
// known type, well-formed category id, parseable RFC3339 date.
func ValidateTransaction(amount, txType, categoryID, date string, notes *string) (TransactionInput, ValidationErrors) {
	var errs ValidationErrors
	var out TransactionInput

	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "amount is required"})
	} else {
		val, err := decimal.NewFromString(trimmed)
		switch {
		case err != nil:
			errs = append(errs, FieldError{Field: "amount", Message: "amount must be a number"})
		case val.LessThanOrEqual(decimal.Zero):
			errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
		default:
			out.Amount = val
		}
	}

	out.Type = strings.ToUpper(strings.TrimSpace(txType))
	if out.Type != TypeIncome && out.Type != TypeExpense {
		errs = append(errs, FieldError{Field: "type", Message: "type must be INCOME or EXPENSE"})
	}

	id, err := uuid.Parse(strings.TrimSpace(categoryID))
	if err != nil {
		errs = append(errs, FieldError{Field: "categoryId", Message: "categoryId must be a uuid"})
	} else {
		out.CategoryID = id
	}

	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(date))
	if err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "date must be an ISO timestamp"})
	} else {
		out.Date = parsed
	}

	out.Notes = notes

	return out, errs
}

type CategoryInput struct {
	NameEn string
	NameBn string
	Type   string
}

func ValidateCategory(in CategoryInput) (CategoryInput, ValidationErrors) {
	var errs ValidationErrors

	in.NameEn = strings.TrimSpace(in.NameEn)
	if in.NameEn == "" {
		errs = append(errs, FieldError{Field: "nameEn", Message: "nameEn is required"})
	}

	in.NameBn = strings.TrimSpace(in.NameBn)
	if in.NameBn == "" {
		errs = append(errs, FieldError{Field: "nameBn", Message: "nameBn is required"})
	}

	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if in.Type != TypeIncome && in.Type != TypeExpense {
		errs = append(errs, FieldError{Field: "type", Message: "type must be INCOME or EXPENSE"})
	}

	return in, errs
}
