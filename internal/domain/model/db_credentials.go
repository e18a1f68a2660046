package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// DBCredentials is the connection document held in the secret store.
type DBCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks every field needed to connect is present.
func (c DBCredentials) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("credentials: host is required")
	case c.DBName == "":
		return errors.New("credentials: dbname is required")
	case c.Username == "":
		return errors.New("credentials: username is required")
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("credentials: invalid port %d", c.Port)
	}
	return nil
}

// DSNOptions are connection parameters that do not come from the secret.
type DSNOptions struct {
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN renders the credentials as a postgres:// URL.
func (c DBCredentials) DSN(opts DSNOptions) string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	q := url.Values{}
	if opts.SSLMode != "" {
		q.Set("sslmode", opts.SSLMode)
	}
	if opts.ConnectTimeout > 0 {
		secs := int(opts.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}
