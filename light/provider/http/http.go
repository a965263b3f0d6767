// Copyright 2025 The go-tmlight Authors
// This file is part of the go-tmlight library.
//
// The go-tmlight library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-tmlight library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-tmlight library. If not, see <http://www.gnu.org/licenses/>.

// Package http implements a light block provider over a full node's HTTP
// RPC, with an optional websocket subscription to new headers.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tmlight/go-tmlight/light/provider"
	"github.com/tmlight/go-tmlight/log"
	"github.com/tmlight/go-tmlight/types"
)

// defaultTimeout bounds a single RPC round trip.
const defaultTimeout = 10 * time.Second

// Provider fetches light blocks from a full node's HTTP RPC. A light block
// is assembled from three requests: the signed header at the height, the
// validator set at the height, and the validator set at height+1.
type Provider struct {
	chainID string
	remote  string
	client  *http.Client
	logger  log.Logger
}

var _ provider.Provider = (*Provider)(nil)

// New returns a provider talking to the node at remote, e.g.
// "http://localhost:26657".
func New(chainID, remote string, logger log.Logger) (*Provider, error) {
	parsed, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("invalid remote %q: %w", remote, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid remote %q: unsupported scheme %q", remote, parsed.Scheme)
	}
	if logger == nil {
		logger = log.DiscardLogger()
	}
	return &Provider{
		chainID: chainID,
		remote:  strings.TrimRight(remote, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger.With("module", "lightprovider", "remote", remote),
	}, nil
}

// ChainID implements provider.Provider.
func (p *Provider) ChainID() string { return p.chainID }

// ID implements provider.Provider.
func (p *Provider) ID() types.PeerID { return types.PeerID(p.remote) }

// LightBlock implements provider.Provider.
func (p *Provider) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	sh, err := p.signedHeader(ctx, height)
	if err != nil {
		return nil, err
	}
	if height != provider.LatestHeight && sh.Height != height {
		return nil, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("requested height %d, node returned %d", height, sh.Height),
		}
	}
	vals, err := p.validatorSet(ctx, sh.Height)
	if err != nil {
		return nil, err
	}
	nextVals, err := p.validatorSet(ctx, sh.Height+1)
	if err != nil {
		return nil, err
	}
	lb := &types.LightBlock{
		SignedHeader:   sh,
		ValidatorSet:   vals,
		NextValidators: nextVals,
		Provider:       p.ID(),
	}
	if err := lb.ValidateBasic(p.chainID); err != nil {
		return nil, provider.ErrBadLightBlock{Reason: err}
	}
	return lb, nil
}

type commitResponse struct {
	SignedHeader *types.SignedHeader `json:"signed_header"`
}

type validatorsResponse struct {
	ValidatorSet *types.ValidatorSet `json:"validator_set"`
}

func (p *Provider) signedHeader(ctx context.Context, height int64) (*types.SignedHeader, error) {
	var resp commitResponse
	if err := p.get(ctx, "/commit", height, &resp); err != nil {
		return nil, err
	}
	if resp.SignedHeader == nil {
		return nil, provider.ErrBadLightBlock{Reason: errors.New("empty commit response")}
	}
	return resp.SignedHeader, nil
}

func (p *Provider) validatorSet(ctx context.Context, height int64) (*types.ValidatorSet, error) {
	var resp validatorsResponse
	if err := p.get(ctx, "/validators", height, &resp); err != nil {
		return nil, err
	}
	if resp.ValidatorSet == nil {
		return nil, provider.ErrBadLightBlock{Reason: errors.New("empty validators response")}
	}
	return resp.ValidatorSet, nil
}

func (p *Provider) get(ctx context.Context, path string, height int64, out any) error {
	endpoint := p.remote + path
	if height != provider.LatestHeight {
		endpoint += "?height=" + strconv.FormatInt(height, 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case isTimeout(err):
			return provider.ErrTimeout
		default:
			return fmt.Errorf("%w: %v", provider.ErrConnectionClosed, err)
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return provider.ErrHeightNotFound
	default:
		return fmt.Errorf("%w: unexpected status %s", provider.ErrConnectionClosed, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnectionClosed, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return provider.ErrBadLightBlock{Reason: fmt.Errorf("malformed response from %s: %w", path, err)}
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SubscribeNewHeaders opens a websocket to the node's head stream and
// delivers signed headers until ctx is done or the connection drops, at
// which point the channel is closed. The headers are unverified; feed the
// heights into the client's VerifyToTarget.
func (p *Provider) SubscribeNewHeaders(ctx context.Context) (<-chan *types.SignedHeader, error) {
	wsURL := "ws" + strings.TrimPrefix(p.remote, "http") + "/ws/heads"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnectionClosed, err)
	}

	out := make(chan *types.SignedHeader)
	go func() {
		defer close(out)
		defer conn.Close()
		go func() {
			// Unblock the read loop when the caller gives up.
			<-ctx.Done()
			conn.Close()
		}()
		for {
			var sh types.SignedHeader
			if err := conn.ReadJSON(&sh); err != nil {
				if ctx.Err() == nil {
					p.logger.Warn("Head subscription closed", "err", err)
				}
				return
			}
			select {
			case out <- &sh:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
