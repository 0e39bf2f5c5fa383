package helpers

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidFullname = errors.New("fullname must contain at least a first and last name")

// IdentifierKind is how a login identifier is matched against stored users.
type IdentifierKind int

const (
	ByUsername IdentifierKind = iota
	ByEmail
	ByPhone
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}

// FormatFullname trims, collapses internal whitespace and title-cases every
// word. At least two words are required.
func FormatFullname(name string) (string, error) {
	words := strings.Fields(name)
	if len(words) < 2 {
		return "", ErrInvalidFullname
	}
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " "), nil
}

// RoomID returns the channel key for a pair of users. The result does not
// depend on argument order.
func RoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}

// ClassifyIdentifier decides whether a login identifier is an email, a phone
// number or a username, and returns it normalized for lookup.
func ClassifyIdentifier(identifier string) (IdentifierKind, string) {
	id := StringTrim(identifier)
	switch {
	case strings.Contains(id, "@"):
		return ByEmail, strings.ToLower(id)
	case digitsOnly.MatchString(id):
		return ByPhone, id
	default:
		return ByUsername, strings.ToLower(id)
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
