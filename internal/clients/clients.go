package clients

import "context"

type Request interface {
	CollectDeck(ctx context.Context, metadata *DeckMetadata) (*Deck, error)
	CollectImage(ctx context.Context, imgURL string) ([]byte, error)
	Close() error
}

type RequestBuilder struct {
	Request Request
	Website ScraperConfig
}

func NewRequestBuilder(t *HTTPClientOptions, site ScraperConfig) *RequestBuilder {
	return &RequestBuilder{
		Request: NewClientRequest(t),
		Website: site,
	}
}
