package credentials

// Session is the read-only view of who is logged in. It is read once and
// passed to the components that need it instead of re-reading the
// credentials file at arbitrary points.
type Session interface {
	Token() string
	Authenticated() bool
	UserID() string
	DisplayName() string
}

type session struct {
	creds *Credentials
}

func (s session) Token() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.AccessToken
}

func (s session) Authenticated() bool {
	return s.creds != nil && s.creds.IsValid()
}

func (s session) UserID() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.UserID
}

func (s session) DisplayName() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.DisplayName()
}

// FromDisk loads the stored credentials once and wraps them as a Session.
// Missing credentials yield an anonymous session.
func FromDisk() (Session, error) {
	creds, err := Load()
	if err != nil {
		return nil, err
	}
	return session{creds: creds}, nil
}

// FromCredentials wraps already-loaded credentials.
func FromCredentials(creds *Credentials) Session {
	return session{creds: creds}
}

// Anonymous is a session with no logged-in user.
func Anonymous() Session {
	return session{}
}

// Static is a session with a fixed token and user id.
func Static(token, userID string) Session {
	return session{creds: &Credentials{AccessToken: token, UserID: userID}}
}
