package cmd

import (
	"context"

	"timemachine/config"
	"timemachine/destination"
	"timemachine/jira"
	"timemachine/source"
	"timemachine/tempo"
)

// newSourceFetcher builds the clients for the source instance and selects the
// fetch strategy once, from the presence of a Tempo token.
func newSourceFetcher(ctx context.Context, cfg *config.Config, opts source.Options) (source.Fetcher, error) {
	clients, err := buildClients(cfg.Source.Backend, cfg.Sync)
	if err != nil {
		return nil, err
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = cfg.Sync.Parallelism
	}
	return source.NewFetcher(ctx, cfg.Source, source.Clients(clients), opts)
}

func newDestinationBackend(ctx context.Context, cfg *config.Config) (destination.Backend, error) {
	clients, err := buildClients(cfg.Destination.Backend, cfg.Sync)
	if err != nil {
		return nil, err
	}
	return destination.NewBackend(ctx, cfg.Destination, destination.Clients(clients))
}

type backendClients struct {
	Jira  jira.Client
	Tempo tempo.Client
}

// buildClients creates one Jira client and, with a Tempo token, one Tempo client
// for a single instance. Nothing is shared between the two instances.
func buildClients(backend config.Backend, sync config.SyncConfig) (backendClients, error) {
	jiraClient, err := jira.NewClient(jira.ClientConfig{
		BaseURL:  backend.URL,
		Email:    backend.Email,
		APIToken: backend.JiraToken,
		Timeout:  sync.RequestTimeout,
	})
	if err != nil {
		return backendClients{}, err
	}

	clients := backendClients{Jira: jiraClient}
	if backend.UsesTempo() {
		tempoClient, err := tempo.NewClient(tempo.ClientConfig{
			BaseURL: backend.TempoURL,
			Token:   backend.TempoToken,
			Timeout: sync.RequestTimeout,
		})
		if err != nil {
			return backendClients{}, err
		}
		clients.Tempo = tempoClient
	}
	return clients, nil
}
