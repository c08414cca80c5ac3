// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/tickets"
)

var ticketFlags struct {
	userID      string
	subject     string
	kind        string
	description string
}

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Manage support tickets",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a ticket on behalf of a user, in the account the user is linked to",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOperator()
		if err != nil {
			return err
		}
		defer o.Close()

		service := tickets.NewService(o.store, o.tracer, o.monitor, o.logger)

		t, err := service.Create(cmd.Context(), ticketFlags.userID, tickets.Draft{
			Subject:     ticketFlags.subject,
			Type:        types.TicketType(ticketFlags.kind),
			Description: ticketFlags.description,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(t)
	},
}

func init() {
	f := ticketCreateCmd.Flags()

	f.StringVar(&ticketFlags.userID, "user-id", "", "identity ID of the ticket creator")
	f.StringVar(&ticketFlags.subject, "subject", "", "ticket subject")
	f.StringVar(&ticketFlags.kind, "type", string(types.TicketSupport), "ticket type: Support, Economy or Other")
	f.StringVar(&ticketFlags.description, "description", "", "ticket description")

	_ = ticketCreateCmd.MarkFlagRequired("user-id")
	_ = ticketCreateCmd.MarkFlagRequired("subject")
	_ = ticketCreateCmd.MarkFlagRequired("description")

	ticketCmd.AddCommand(ticketCreateCmd)
	rootCmd.AddCommand(ticketCmd)
}
