package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/services"
	"github.com/dmitrijs2005/bidmarket/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and signs in. Failures are reported through
// notices by the auth flow and returned unchanged.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.auth.SwitchMode(services.ModeLogin)
	u, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.printf("Welcome, %s (%s)\n", u.Name, u.Role)
	return nil
}

// Register collects the signup form, requests a verification code and then
// asks for the code until it is accepted. An empty code abandons the
// attempt; "resend" asks the server for a new code.
func (a *App) Register(ctx context.Context) error {
	a.auth.SwitchMode(services.ModeRegister)
	a.auth.Close()

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleText, err := getSimpleText(a.reader, "Account type (buyer/seller)", a.out)
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		a.printf("Please choose buyer or seller\n")
		return err
	}

	reg := models.Registration{Name: name, Email: email, Password: string(password), Role: role}
	if err := a.auth.RequestRegistrationOTP(ctx, reg); err != nil {
		return err
	}

	for {
		code, err := getSimpleText(a.reader, "Enter the verification code (empty to cancel, 'resend' for a new one)", a.out)
		if err != nil {
			a.auth.Close()
			return err
		}

		switch strings.ToLower(code) {
		case "":
			a.auth.Close()
			a.printf("Registration cancelled\n")
			return nil
		case "resend":
			if err := a.auth.RequestRegistrationOTP(ctx, reg); err != nil && a.auth.State() != services.StateOTPPending {
				return err
			}
			continue
		}

		u, err := a.auth.VerifyRegistrationOTP(ctx, email, code)
		if err == nil {
			a.printf("Welcome, %s (%s)\n", u.Name, u.Role)
			return nil
		}
		if errors.Is(err, services.ErrStale) || a.auth.State() != services.StateOTPPending {
			return err
		}
	}
}

// Logout clears the stored session, signing out every window sharing it.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("You are not logged in\n")
		return nil
	}
	return a.auth.Logout(ctx)
}
