package security

// FieldCheck is a named validation predicate with the message reported when
// it fails. Checks run in order and stop at the first failure so the
// user-facing error precedence stays stable.
type FieldCheck struct {
	Name    string
	Fail    func() bool
	Message string
}

// FirstFailure evaluates the checks in order and returns the message of the
// first failing check, or ok when all pass.
func FirstFailure(checks []FieldCheck) (message string, ok bool) {
	for _, check := range checks {
		if check.Fail() {
			return check.Message, false
		}
	}
	return "", true
}

// MinPasswordLength is the minimum accepted password length at sign-up.
const MinPasswordLength = 7

// SignUpChecks returns the ordered validation chain for the sign-up form.
// emailTaken must be resolved by the caller before building the chain.
func SignUpChecks(emailTaken bool, email, firstName, password1, password2 string) []FieldCheck {
	return []FieldCheck{
		{
			Name:    "email-unique",
			Fail:    func() bool { return emailTaken },
			Message: "Email already exists.",
		},
		{
			Name:    "email-length",
			Fail:    func() bool { return len(email) < 4 },
			Message: "Email must be greater than 3 characters.",
		},
		{
			Name:    "first-name-length",
			Fail:    func() bool { return len(firstName) < 2 },
			Message: "First name must be greater than 1 character.",
		},
		{
			Name:    "passwords-match",
			Fail:    func() bool { return password1 != password2 },
			Message: "Passwords don't match.",
		},
		{
			Name:    "password-length",
			Fail:    func() bool { return len(password1) < MinPasswordLength },
			Message: "Password must be at least 7 characters.",
		},
	}
}

// PatientChecks returns the validation chain for the create patient form.
func PatientChecks(firstName string) []FieldCheck {
	return []FieldCheck{
		{
			Name:    "first-name-length",
			Fail:    func() bool { return len(firstName) < 2 },
			Message: "First name must be greater than 1 character.",
		},
	}
}
