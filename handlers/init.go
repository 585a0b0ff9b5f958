package handlers

import (
	"yaytsa-site/config"
	"yaytsa-site/lyrics"
	"yaytsa-site/lyricsfetch"
	"yaytsa-site/separator"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()
var store *sessions.CookieStore

// Services carries the pipeline components the handlers call into.
type Services struct {
	Separator *separator.Client
	Fetcher   *lyricsfetch.Client
	Resolver  *lyrics.Resolver
}

var services Services

func Init(logger *logrus.Logger, svcs Services) error {
	log = logger.WithFields(logrus.Fields{
		"component": "handlers",
	}).Logger
	services = svcs

	// create the cookie store
	key, err := config.GetSessionAuthKey()
	if err != nil {
		return err
	}
	store = sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // seconds
		HttpOnly: true,
		Secure:   config.GetSecure(),
	}

	return nil
}

func Fini() {}
