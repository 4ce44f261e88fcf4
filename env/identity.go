package env

// Default identity used when the environment doesn't provide one
// https://git-scm.com/book/en/v2/Git-Internals-Environment-Variables
const (
	DefaultName  = "mingit"
	DefaultEmail = "mingit@localhost"
)

// Identity represents the name/email pair of the person authoring or
// committing a change
type Identity struct {
	Name  string
	Email string
}

// AuthorIdentity returns the author identity set in the env, falling
// back to the defaults.
// Maps to $GIT_AUTHOR_NAME and $GIT_AUTHOR_EMAIL
func AuthorIdentity(e *Env) Identity {
	return identity(e, "GIT_AUTHOR_NAME", "GIT_AUTHOR_EMAIL")
}

// CommitterIdentity returns the committer identity set in the env,
// falling back to the defaults.
// Maps to $GIT_COMMITTER_NAME and $GIT_COMMITTER_EMAIL
func CommitterIdentity(e *Env) Identity {
	return identity(e, "GIT_COMMITTER_NAME", "GIT_COMMITTER_EMAIL")
}

func identity(e *Env, nameKey, emailKey string) Identity {
	id := Identity{
		Name:  e.Get(nameKey),
		Email: e.Get(emailKey),
	}
	if id.Name == "" {
		id.Name = DefaultName
	}
	if id.Email == "" {
		id.Email = DefaultEmail
	}
	return id
}
