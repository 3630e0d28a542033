/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/apiclient"
	"github.com/cinescope/apiserver/internal/session"
)

// newAPIClient loads the client config and the saved session.
func newAPIClient() (*apiclient.Client, *session.Store, error) {
	path := clientConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultClientConfigPath(); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.LoadClientConfig(path)
	if err != nil {
		return nil, nil, err
	}

	sessionFile := cfg.SessionFile
	if sessionFile == "" {
		if sessionFile, err = session.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	store := session.NewStore(sessionFile)
	if err := store.Load(); err != nil {
		return nil, nil, err
	}

	return apiclient.New(cfg.APIURL, store, session.NewErrorState()), store, nil
}

func requireLogin(store *session.Store) (session.Session, error) {
	current, ok := store.Current()
	if !ok {
		return session.Session{}, fmt.Errorf("not logged in, run `cinescope login` first")
	}
	return current, nil
}
