package entity

import (
	"encoding/json"
	"strings"
)

// Credentials authenticate against the ESA portal
type Credentials struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// UnmarshalJSON also accepts the older email/password keys
func (c *Credentials) UnmarshalJSON(data []byte) error {
	var raw struct {
		Identity string `json:"identity"`
		Secret   string `json:"secret"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Identity = raw.Identity
	if c.Identity == "" {
		c.Identity = raw.Email
	}
	c.Secret = raw.Secret
	if c.Secret == "" {
		c.Secret = raw.Password
	}
	return nil
}

// Complete reports whether both identity and secret are present
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Identity) != "" && c.Secret != ""
}

// String never prints the secret
func (c Credentials) String() string {
	return "Credentials{" + c.Identity + ", ***}"
}
