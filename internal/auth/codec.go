package auth

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	fieldSep = ";"
	roleSep  = ","
)

// EncodeSession serializes p as "<id>;<username>;<role1>,<role2>,...".
func EncodeSession(p Principal) (string, error) {
	if p.ID <= 0 {
		return "", fmt.Errorf("%w: id must be > 0", ErrInvalidPrincipal)
	}
	if p.Username == "" || strings.Contains(p.Username, fieldSep) {
		return "", fmt.Errorf("%w: invalid username", ErrInvalidPrincipal)
	}
	for _, r := range p.Roles {
		if err := validateRoleName(r); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
		}
	}
	return strconv.Itoa(p.ID) + fieldSep + p.Username + fieldSep + strings.Join(p.Roles, roleSep), nil
}

// DecodeSession parses a value produced by EncodeSession. An empty roles
// field yields an empty role set.
func DecodeSession(value string) (Principal, error) {
	parts := strings.Split(value, fieldSep)
	if len(parts) != 3 {
		return Principal{}, ErrMalformedCookie
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id <= 0 {
		return Principal{}, ErrInvalidUserID
	}

	roles := []string{}
	seen := make(map[string]struct{})
	for _, r := range strings.Split(parts[2], roleSep) {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}

	return Principal{ID: id, Username: parts[1], Roles: roles}, nil
}
