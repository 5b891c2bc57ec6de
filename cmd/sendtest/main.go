// cmd/sendtest sends a sample order confirmation through the configured
// email provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/pkg/email"
	"github.com/undercontrol/storefront/internal/pkg/logger"
)

func main() {
	to := flag.String("to", "", "customer address to copy besides the admin address")
	timeout := flag.Duration("timeout", 30*time.Second, "send timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	mailer := email.NewEmailService(cfg, log)
	if !mailer.IsConfigured() {
		log.WithField("provider", cfg.External.Email.Provider).Fatal("Email provider is not configured")
	}

	draft, err := order.NewAssembler(catalogue.Default(), pricing.DefaultShippingPolicy).Assemble(
		cart.State{
			"grip":  {Quantity: 2, Color: "black"},
			"light": {Quantity: 1, Color: "black"},
		},
		order.FormInput{FullName: "Test Customer", City: "Beirut", Email: *to},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to assemble sample order")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	id, err := mailer.SendOrderConfirmation(ctx, draft.Payload())
	if err != nil {
		log.WithError(err).Fatal("Send failed")
	}

	log.WithFields(logrus.Fields{
		"order_id": draft.OrderID,
		"email_id": id,
	}).Info("Sample order email sent")
}
