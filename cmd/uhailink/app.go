// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/internal/auth"
	authpg "github.com/uhailink/uhailink/internal/auth/postgres"
	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/internal/config"
	"github.com/uhailink/uhailink/internal/directory"
	directorypg "github.com/uhailink/uhailink/internal/directory/postgres"
	"github.com/uhailink/uhailink/internal/observability"
	"github.com/uhailink/uhailink/internal/profile"
	profilepg "github.com/uhailink/uhailink/internal/profile/postgres"
	"github.com/uhailink/uhailink/internal/web"
)

// app is the wired service graph behind the HTTP surface.
type app struct {
	hub       *auth.Hub
	auth      *auth.Service
	profiles  *profile.Service
	directory *directory.Service
	resolver  *access.Resolver
	assistant *chat.Assistant
	web       *web.Server
}

func newProfileService(db DB, publisher profile.Publisher) *profile.Service {
	var opts []profile.Option
	if publisher != nil {
		opts = append(opts, profile.WithPublisher(publisher))
	}
	return profile.NewService(
		profilepg.NewProfileRepository(db),
		profilepg.NewContactRepository(db),
		profilepg.NewTokenRepository(db),
		opts...,
	)
}

func newDirectoryService(db DB) *directory.Service {
	return directory.NewService(
		directorypg.NewOrganizationRepository(db),
		directorypg.NewTutorialRepository(db),
	)
}

// newAssistant builds the assistant from configuration. A nil streamer
// talks to the configured completion endpoint.
func newAssistant(cfg *config.Config, streamer chat.Streamer, reg prometheus.Registerer) (*chat.Assistant, error) {
	if streamer == nil {
		streamer = chat.NewClient(chat.ClientConfig{
			Endpoint:    cfg.Chat.Endpoint,
			APIKey:      cfg.Chat.APIKey,
			Model:       cfg.Chat.Model,
			Referer:     cfg.HTTP.Origin,
			Title:       cfg.Chat.Title,
			Temperature: cfg.Chat.Temperature,
			MaxTokens:   cfg.Chat.MaxTokens,
			Timeout:     cfg.Chat.Timeout,
		}, nil)
	}

	opts := []chat.AssistantOption{chat.WithBlocklist(chat.NewBlocklist(cfg.Chat.BlockedTerms...))}
	if cfg.Chat.GuidesFile != "" {
		data, err := os.ReadFile(cfg.Chat.GuidesFile)
		if err != nil {
			return nil, oops.Code("GUIDES_READ_FAILED").With("path", cfg.Chat.GuidesFile).Wrap(err)
		}
		guides, err := chat.LoadGuides(data)
		if err != nil {
			return nil, oops.With("path", cfg.Chat.GuidesFile).Wrap(err)
		}
		opts = append(opts, chat.WithGuides(guides))
	}
	if cfg.Chat.ProbeURL != "" {
		opts = append(opts, chat.WithConnectivity(chat.Probe{URL: cfg.Chat.ProbeURL}))
	}
	if len(cfg.Chat.SpeechCommand) > 0 {
		opts = append(opts, chat.WithSpeaker(chat.CommandSpeaker{Command: cfg.Chat.SpeechCommand}))
	}
	if reg != nil {
		opts = append(opts, chat.WithMetrics(chat.NewMetrics(reg)))
	}
	return chat.NewAssistant(streamer, opts...), nil
}

// newApp wires repositories, services, and the HTTP server. httpMetrics
// may be nil.
func newApp(cfg *config.Config, db DB, streamer chat.Streamer, reg prometheus.Registerer, httpMetrics *observability.Metrics) (*app, error) {
	hub := auth.NewHub()
	profiles := newProfileService(db, hub)

	authSvc, err := auth.NewService(
		authpg.NewAccountRepository(db),
		authpg.NewSessionRepository(db),
		auth.NewArgon2idHasher(),
		hub,
		auth.WithSessionTTL(cfg.Session.TTL),
		auth.WithProfileCreator(profiles),
	)
	if err != nil {
		return nil, err
	}

	resolverOpts := []access.ResolverOption{access.WithTimeout(cfg.Access.Timeout)}
	if reg != nil {
		resolverOpts = append(resolverOpts, access.WithMetrics(access.NewMetrics(reg)))
	}
	resolver := access.NewResolver(nil, profiles, resolverOpts...)

	assistant, err := newAssistant(cfg, streamer, reg)
	if err != nil {
		return nil, err
	}

	a := &app{
		hub:       hub,
		auth:      authSvc,
		profiles:  profiles,
		directory: newDirectoryService(db),
		resolver:  resolver,
		assistant: assistant,
	}
	a.web, err = web.New(web.Deps{
		Auth:      authSvc,
		Notifier:  hub,
		Resolver:  resolver,
		Profiles:  profiles,
		Directory: a.directory,
		Assistant: assistant,
		Metrics:   httpMetrics,
	}, web.Options{
		Addr:            cfg.HTTP.Addr,
		Origin:          cfg.HTTP.Origin,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		SecureCookies:   cfg.HTTP.SecureCookies,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
