package stdout

import (
	"fmt"
	"io"
	"os"

	"linkguard/internal/model"
	"linkguard/internal/publishers"
)

type Publisher struct {
	out io.Writer
}

func (p *Publisher) Publish(links []model.Link, config map[string]interface{}) error {
	payload, err := publishers.GenerateSubscriptionPayload(links, config)
	if err != nil {
		return err
	}

	out := p.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, payload)
	return err
}

func init() {
	publishers.Register("stdout", func() publishers.Publisher { return &Publisher{} })
}
