//go:build compose

package main

import (
	"context"
	"fmt"
	"net"

	"github.com/testcontainers/testcontainers-go/modules/compose"
)

func SetupServer(ctx context.Context) (baseURL string, teardown func() error, err error) {
	project, err := compose.NewDockerCompose("../../compose.yaml")
	if err != nil {
		return "", nil, err
	}
	maybeTeardown := func() error {
		return project.Down(ctx, compose.RemoveImagesLocal, compose.RemoveOrphans(true), compose.RemoveVolumes(true))
	}
	defer func() {
		if maybeTeardown != nil {
			_ = maybeTeardown()
		}
	}()

	if err = project.Up(ctx, compose.Wait(true)); err != nil {
		return "", nil, err
	}

	serverContainer, err := project.ServiceContainer(ctx, "server")
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
