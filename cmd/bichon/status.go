package main

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/bichon-mail/bichon/internal/dispatcher"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/models"
)

// printMailboxTable renders one account's persisted mailbox state. The
// sync engine's running-state tracker lives in the sync process's memory,
// so a separate status invocation reads the durable mailbox rows instead
// of live in-flight progress.
func printMailboxTable(accountEmail string, rows []*models.Mailbox) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"folder", "exists", "uid_validity", "uid_next", "updated_at"})
	table.SetCaption(true, accountEmail)

	for _, m := range rows {
		uidValidity := "unknown"
		if m.UidValidityKnown() {
			uidValidity = strconv.FormatUint(uint64(*m.UidValidity), 10)
		}
		table.Append([]string{
			m.Name,
			strconv.FormatUint(uint64(m.Exists), 10),
			uidValidity,
			strconv.FormatUint(uint64(m.UidNext), 10),
			m.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table.Render()
}

// drainStatusEvents logs status events fired by the sync engine so they
// are visible even when no AMQP sink is configured.
func drainStatusEvents(sink *dispatcher.ChannelDispatcher, log logger.Logger) {
	for event := range sink.Events() {
		log.Infof("status: account=%s %s", event.AccountID, event.Message)
	}
}
