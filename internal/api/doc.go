// Package api provides the HTTP diagnostics and control surface for Lumen Core.
//
// # Features
//
//   - Versioned REST API under /api/v1 built on chi
//   - Open read endpoints: health, schedule registry, channel states,
//     switch history, solar times
//   - JWT-protected switching commands (POST /channels/on, /channels/off)
//   - WebSocket event stream pushing dispatches and channel state changes
//   - Request ID, logging, panic recovery and body size middleware
//
// # Usage
//
//	server, err := api.New(api.Deps{
//		Config:     cfg.API,
//		Logger:     logger,
//		Registry:   registry,
//		Controller: controller,
//		Solar:      provider,
//		History:    history,
//		Version:    version,
//	})
//	if err != nil {
//		return err
//	}
//	if err := server.Start(ctx); err != nil {
//		return err
//	}
//	defer server.Close()
//
// # Security
//
// Read endpoints are unauthenticated and intended for LAN use. Switching
// commands require a Bearer JWT signed with HS256 using the configured
// api.secret; other signing methods are rejected. Tokens can be minted
// with GenerateToken.
package api
