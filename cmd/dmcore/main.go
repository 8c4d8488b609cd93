/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"dmcore/internal"
	"dmcore/internal/auth"
	"dmcore/internal/data"
	"dmcore/internal/handler"
	"dmcore/internal/hub"
	"dmcore/internal/input"
	"dmcore/internal/network"
	"dmcore/internal/nlog"
	"dmcore/internal/presence"
	"dmcore/internal/probe"
	"dmcore/internal/service"
	"dmcore/internal/socket"
)

var subsystems = []string{"main", "storage", "messages", "hub", "socket", "http", "publisher", "probe"}

func main() {
	folder := flag.String("config", ".", "folder holding the .cfg file")
	flag.Parse()

	if err := run(*folder); err != nil {
		fmt.Fprintf(os.Stderr, "dmcore: %v\n", err)
		os.Exit(1)
	}
}

func run(folder string) error {
	cfg, err := internal.LoadConfig(folder)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serviceLogger, err := nlog.NewServiceLogger(filepath.Join(cfg.FolderPath, "logs"), cfg.EnableLogging, cfg.LogLevel)
	if err != nil {
		return err
	}
	loggers := make(map[string]nlog.Logger, len(subsystems))
	for _, name := range subsystems {
		if loggers[name], err = serviceLogger.RegisterSubsystem(name); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	loggerCtx, stopLogger := context.WithCancel(context.Background())
	loggerDone := make(chan struct{})
	go func() {
		serviceLogger.Run(loggerCtx)
		close(loggerDone)
	}()
	defer func() {
		stopLogger()
		<-loggerDone
	}()

	log := loggers["main"]

	// Storage
	db, err := data.OpenDatabase(cfg, loggers["storage"])
	if err != nil {
		return err
	}
	storage, err := data.NewStorageManager(ctx, db)
	if err != nil {
		data.CloseDatabase(db)
		return err
	}
	defer storage.Close()

	if err := storage.SeedUsers(ctx, cfg.SeedUsers); err != nil {
		return err
	}
	log.Logf("Storage ready, epoch {%d}", storage.GetCachedEpoch())

	// Services
	userService := service.NewLocalUserService(storage.GetUserRepository(), loggers["messages"])
	messageService := service.NewLocalMessageService(userService, storage.GetMessageRepository(), loggers["messages"])

	registry := presence.NewRegistry()
	messageHub := hub.NewHub(registry, messageService, loggers["hub"])
	verifier := auth.NewVerifier(cfg.TokenKey)

	socketServer := socket.NewServer(messageHub, verifier, loggers["socket"])
	messageHub.AddPusher(socketServer)

	if cfg.ZMQPublishAddr != "" {
		publisher, err := network.NewZMQPublisher(cfg.ZMQPublishAddr, cfg.RedisChannelPrefix, loggers["publisher"])
		if err != nil {
			return err
		}
		messageHub.AddPusher(publisher)
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
		}()
		log.Logf("Publishing events on %s", publisher.Endpoint())
	}

	if cfg.RedisAddr != "" {
		redisPublisher := network.NewRedisPublisher(network.NewRedisClient(cfg.RedisAddr), cfg.RedisChannelPrefix, loggers["publisher"])
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisPublisher.Ping(pingCtx)
		cancel()
		if err != nil {
			redisPublisher.Close()
			return err
		}
		defer redisPublisher.Close()
		messageHub.AddPusher(redisPublisher)
	}

	// Health probe
	healthProbe := probe.NewProbe(loggers["probe"])
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := healthProbe.Listen(ctx, cfg.HealthPort); err != nil {
			log.Logf("Health probe stopped: %v", err)
			stop()
		}
	}()

	// Socket surface
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := socketServer.Listen(ctx, cfg.SocketServerPort); err != nil {
			log.Logf("Socket server stopped: %v", err)
			stop()
		}
	}()

	// HTTP surface
	inputManager := input.NewInputManager()
	inputManager.SetLogger(loggers["http"])
	inputManager.SetVerifier(verifier)
	inputManager.AddRoutes(
		handler.NewMessageHandler(messageService, messageHub, loggers["http"]),
		handler.NewPresenceHandler(messageHub),
		handler.NewUserHandler(userService),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := inputManager.Run(ctx, &input.IptConfig{
			ServerPort:   cfg.HTTPServerPort,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			SecretKey:    cfg.SecretKey,
		})
		if err != nil {
			stop()
		}
	}()

	healthProbe.SetServing(probe.Messages, true)
	healthProbe.SetServing(probe.Presence, true)
	healthProbe.SetServing(probe.Overall, true)
	log.Logf("dmcore is up: http {%d}, socket {%d}, health {%d}", cfg.HTTPServerPort, cfg.SocketServerPort, cfg.HealthPort)

	<-ctx.Done()
	log.Logf("Shutting off...")
	wg.Wait()
	log.Logf("Bye bye")
	return nil
}
