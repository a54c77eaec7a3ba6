package imap

import (
	"github.com/emersion/go-imap"
)

// idCommand implements the RFC 2971 ID command as an imap.Commander so it
// can ride the same client.Execute path as any other command. go-imap's
// core client has no native ID support; callers only reach this when the
// server advertised the ID capability.
type idCommand struct {
	params map[string]string
}

func (cmd *idCommand) Command() *imap.Command {
	if len(cmd.params) == 0 {
		return &imap.Command{
			Name:      "ID",
			Arguments: []interface{}{nil},
		}
	}

	list := make([]interface{}, 0, len(cmd.params)*2)
	for k, v := range cmd.params {
		list = append(list, k, v)
	}
	return &imap.Command{
		Name:      "ID",
		Arguments: []interface{}{list},
	}
}
