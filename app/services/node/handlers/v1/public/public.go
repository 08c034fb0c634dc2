// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rblocklabs/rblock/business/sys/validate"
	v1 "github.com/rblocklabs/rblock/business/web/v1"
	"github.com/rblocklabs/rblock/foundation/blockchain/database"
	"github.com/rblocklabs/rblock/foundation/blockchain/state"
	"github.com/rblocklabs/rblock/foundation/events"
	"github.com/rblocklabs/rblock/foundation/web"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode and validate the transaction sent by the wallet.
	var app newTx
	if err := web.Decode(r, &app); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	signedTx := toSignedTx(app)

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value)

	if err := h.State.UpsertWalletTransaction(signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = toViewTx(tran)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// LatestBlock returns the current chain tip.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()
	return web.Respond(ctx, w, toViewBlock(latest), http.StatusOK)
}

// BlockByHeight returns the block stored at the specified height.
func (h Handlers) BlockByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return v1.NewRequestError(errors.New("height must be a non-negative number"), http.StatusBadRequest)
	}

	blk, err := h.State.QueryBlockByHeight(height)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v1.NewRequestError(errors.New("block not found"), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toViewBlock(blk), http.StatusOK)
}

// BlocksByAccount returns the blocks that carry transactions involving the
// specified account, or all the blocks when no account is specified.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if acct := web.Param(r, "account"); acct != "" {
		var err error
		accountID, err = database.ToAccountID(acct)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	dbBlocks, err := h.State.QueryBlocksByAccount(accountID)
	if err != nil {
		return err
	}

	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blocks[i] = toViewBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// SignalMining signals the worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
