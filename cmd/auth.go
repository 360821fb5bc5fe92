package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/placelist/internal/server"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/urfave/cli/v3"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

func (r *Runner) authenticator() (*spotifyauth.Authenticator, error) {
	sc := r.config.Credentials.Spotify
	if sc.ClientID == "" || sc.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}
	return spotifyauth.New(
		spotifyauth.WithClientID(sc.ClientID),
		spotifyauth.WithClientSecret(sc.ClientSecret),
		spotifyauth.WithRedirectURL(sc.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
	), nil
}

// accessToken returns a usable access token, refreshing and saving it when it has expired.
func (r *Runner) accessToken(ctx context.Context) (string, error) {
	sc := &r.config.Credentials.Spotify
	tok := sc.Token()
	if tok == nil {
		return "", fmt.Errorf("%w: run 'placelist auth' or set SPOTIFY_ACCESS_TOKEN", shared.ErrNotAuthenticated)
	}
	if tok.Valid() || tok.RefreshToken == "" {
		return tok.AccessToken, nil
	}

	auth, err := r.authenticator()
	if err != nil {
		return "", err
	}
	fresh, err := spotify.New(auth.Client(ctx, tok)).Token()
	if err != nil {
		return "", fmt.Errorf("%w: token refresh failed: %w", shared.ErrNotAuthenticated, err)
	}

	r.logger.Info("access token refreshed", "expiry", fresh.Expiry)
	sc.Update(fresh)
	r.saveConfig()
	return fresh.AccessToken, nil
}

// AuthLogin performs the OAuth2 authorization-code flow.
//
// Starts a local callback server, opens the browser for user authorization and saves the tokens to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, auth)
	if err != nil {
		return err
	}

	r.config.Credentials.Spotify.Update(token)
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: placelist enrich <wikipedia-url>\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, auth *spotifyauth.Authenticator) (*oauth2.Token, error) {
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(auth, state)
	srv := server.New(r.config.Server.Addr(), server.NewRouter(r.logger, handler), r.logger)

	srvCtx, stop := context.WithCancel(ctx)
	defer stop()
	serverErrors := make(chan error, 1)
	go func() { serverErrors <- srv.Run(srvCtx) }()

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus prints the user the stored token belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	if auth, err := r.authenticator(); err == nil && r.newCatalog == nil {
		client := spotify.New(auth.Client(ctx, r.config.Credentials.Spotify.Token()))
		user, err := client.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
		}
		r.writePlain("✓ Authenticated as %s (%s)\n", user.DisplayName, user.ID)
		return nil
	}

	user, err := r.catalogClient(token).Me(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Authenticated as %s (%s)\n", user.DisplayName, user.ID)
	return nil
}
