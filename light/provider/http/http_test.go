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

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlight/go-tmlight/internal/test/factory"
	"github.com/tmlight/go-tmlight/light/provider"
	"github.com/tmlight/go-tmlight/types"
)

const chainID = "test-chain"

var bTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testNode is a minimal full node RPC: signed headers and validator sets
// keyed by height.
type testNode struct {
	headers map[int64]*types.SignedHeader
	vals    map[int64]*types.ValidatorSet
	latest  int64
}

func newTestNode(n int64) *testNode {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10)

	node := &testNode{
		headers: make(map[int64]*types.SignedHeader),
		vals:    make(map[int64]*types.ValidatorSet),
		latest:  n,
	}
	var lastID types.BlockID
	for h := int64(1); h <= n+1; h++ {
		node.vals[h] = vals
	}
	for h := int64(1); h <= n; h++ {
		sh := keys.GenSignedHeader(chainID, h, bTime.Add(time.Duration(h)*time.Minute),
			lastID, vals, vals, factory.Hash("app"), 0, 4)
		node.headers[h] = sh
		lastID = factory.BlockIDFor(sh)
	}
	return node
}

func (n *testNode) handler() http.Handler {
	mux := http.NewServeMux()
	height := func(r *http.Request) (int64, bool) {
		q := r.URL.Query().Get("height")
		if q == "" {
			return n.latest, true
		}
		h, err := strconv.ParseInt(q, 10, 64)
		return h, err == nil
	}
	mux.HandleFunc("/commit", func(w http.ResponseWriter, r *http.Request) {
		h, ok := height(r)
		sh := n.headers[h]
		if !ok || sh == nil {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"signed_header": sh})
	})
	mux.HandleFunc("/validators", func(w http.ResponseWriter, r *http.Request) {
		h, ok := height(r)
		vals := n.vals[h]
		if !ok || vals == nil {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"validator_set": vals})
	})
	return mux
}

func TestProviderFetchesLightBlock(t *testing.T) {
	node := newTestNode(5)
	srv := httptest.NewServer(node.handler())
	defer srv.Close()

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	lb, err := p.LightBlock(context.Background(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, lb.Height())
	assert.Equal(t, node.headers[3].Hash(), lb.Hash())
	assert.Equal(t, p.ID(), lb.Provider)
	require.NoError(t, lb.ValidateBasic(chainID))
}

func TestProviderFetchesLatest(t *testing.T) {
	node := newTestNode(5)
	srv := httptest.NewServer(node.handler())
	defer srv.Close()

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	lb, err := p.LightBlock(context.Background(), provider.LatestHeight)
	require.NoError(t, err)
	assert.EqualValues(t, 5, lb.Height())
}

func TestProviderHeightNotFound(t *testing.T) {
	node := newTestNode(2)
	srv := httptest.NewServer(node.handler())
	defer srv.Close()

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	_, err = p.LightBlock(context.Background(), 42)
	assert.ErrorIs(t, err, provider.ErrHeightNotFound)
}

func TestProviderRejectsWrongChain(t *testing.T) {
	node := newTestNode(2)
	srv := httptest.NewServer(node.handler())
	defer srv.Close()

	p, err := New("other-chain", srv.URL, nil)
	require.NoError(t, err)

	_, err = p.LightBlock(context.Background(), 1)
	var bad provider.ErrBadLightBlock
	assert.ErrorAs(t, err, &bad)
}

func TestProviderRejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	_, err = p.LightBlock(context.Background(), 1)
	var bad provider.ErrBadLightBlock
	assert.ErrorAs(t, err, &bad)
}

func TestProviderTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nobody home

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	_, err = p.LightBlock(context.Background(), 1)
	assert.ErrorIs(t, err, provider.ErrConnectionClosed)
}

func TestProviderRejectsBadRemote(t *testing.T) {
	_, err := New(chainID, "ftp://example.com", nil)
	assert.Error(t, err)
	_, err = New(chainID, "://", nil)
	assert.Error(t, err)
}

func TestProviderContextCancellation(t *testing.T) {
	node := newTestNode(2)
	srv := httptest.NewServer(node.handler())
	defer srv.Close()

	p, err := New(chainID, srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.LightBlock(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
