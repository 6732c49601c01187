//go:build !compose

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func SetupServer(ctx context.Context) (baseURL string, teardown func() error, err error) {
	teardownFuncs := make([]func() error, 0)
	maybeTeardown := func() error {
		var merr error
		for len(teardownFuncs) > 0 {
			var teardownFunc func() error
			teardownFuncs, teardownFunc = teardownFuncs[:len(teardownFuncs)-1], teardownFuncs[len(teardownFuncs)-1]

			if terr := teardownFunc(); terr != nil {
				merr = errors.Join(merr, terr)
			}
		}
		return merr
	}
	defer func() {
		if maybeTeardown != nil {
			_ = maybeTeardown()
		}
	}()

	serverContainerReq := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:       "../..",
				PrintBuildLog: true,
			},
			Env: map[string]string{
				"NEARC_SERVER_HOST": "0.0.0.0",
				"NEARC_SERVER_PORT": "8080",
			},
			ExposedPorts: []string{"8080/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForHTTP("/health").WithPort("8080/tcp"),
			).WithDeadline(5 * time.Minute),
		},
		Started: true,
	}
	serverContainer, err := testcontainers.GenericContainer(ctx, serverContainerReq)
	teardownFuncs = append(teardownFuncs, func() error {
		return testcontainers.TerminateContainer(serverContainer)
	})
	if err != nil {
		return "", nil, err
	}

	host, err := serverContainer.Host(ctx)
	if err != nil {
		return "", nil, err
	}

	mappedPort, err := serverContainer.MappedPort(ctx, "8080/tcp")
	if err != nil {
		return "", nil, err
	}

	baseURL = fmt.Sprintf("http://%s", net.JoinHostPort(host, mappedPort.Port()))

	teardown = maybeTeardown
	maybeTeardown = nil
	return baseURL, teardown, nil
}
