package office

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EmployeeAccount is a directory entry for a permanent office member.
type EmployeeAccount struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
}

// EmployeeDirectory holds the fixed set of employee accounts the office
// was configured with. It is read-only after construction.
type EmployeeDirectory struct {
	byEmail map[string]EmployeeAccount
	byID    map[string]EmployeeAccount
}

// NewEmployeeDirectory validates and indexes the given accounts.
func NewEmployeeDirectory(accounts []EmployeeAccount) (*EmployeeDirectory, error) {
	dir := &EmployeeDirectory{
		byEmail: make(map[string]EmployeeAccount, len(accounts)),
		byID:    make(map[string]EmployeeAccount, len(accounts)),
	}
	for i, account := range accounts {
		account.Email = strings.TrimSpace(strings.ToLower(account.Email))
		account.DisplayName = strings.TrimSpace(account.DisplayName)
		switch {
		case account.ID == "":
			return nil, fmt.Errorf("account %d: id is required", i)
		case account.Email == "":
			return nil, fmt.Errorf("account %q: email is required", account.ID)
		case account.DisplayName == "":
			return nil, fmt.Errorf("account %q: display name is required", account.ID)
		case account.Role == RoleVisitor || !account.Role.Valid():
			return nil, fmt.Errorf("account %q: invalid role %q", account.ID, account.Role)
		case account.PasswordHash == "":
			return nil, fmt.Errorf("account %q: password hash is required", account.ID)
		}
		if _, ok := dir.byEmail[account.Email]; ok {
			return nil, fmt.Errorf("account %q: duplicate email %q", account.ID, account.Email)
		}
		if _, ok := dir.byID[account.ID]; ok {
			return nil, fmt.Errorf("account %q: duplicate id", account.ID)
		}
		dir.byEmail[account.Email] = account
		dir.byID[account.ID] = account
	}
	return dir, nil
}

// Authenticate verifies the email/password pair against the directory.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (d *EmployeeDirectory) Authenticate(ctx context.Context, email, password string, verify PasswordVerifier) (EmployeeAccount, error) {
	if d == nil {
		return EmployeeAccount{}, ErrInvalidCredentials
	}
	if verify == nil {
		verify = VerifyPassword
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return EmployeeAccount{}, ErrInvalidCredentials
	}

	account, ok := d.byEmail[email]
	if !ok {
		return EmployeeAccount{}, ErrInvalidCredentials
	}
	if err := verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return EmployeeAccount{}, ErrInvalidCredentials
		}
		return EmployeeAccount{}, err
	}
	return account, nil
}

// Lookup returns the account with the given id.
func (d *EmployeeDirectory) Lookup(id string) (EmployeeAccount, bool) {
	if d == nil {
		return EmployeeAccount{}, false
	}
	account, ok := d.byID[id]
	return account, ok
}
