package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/tally/internal/inventory"
)

// Mutation kinds reported by mutationDoneMsg.
const (
	actionCreate = "create"
	actionStock  = "stock"
	actionSale   = "sale"
	actionDelete = "delete"
)

// mutationDoneMsg reports the result of a write to the backend.
type mutationDoneMsg struct {
	action    string
	product   *inventory.Product
	removedID string
	err       error
}

// mutationCmd turns an intent message into a backend call.
func (m Model) mutationCmd(intent tea.Msg) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, parent := m.api, m.ctx
	run := func(action string, fn func(ctx context.Context) mutationDoneMsg) tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := requestContext(parent)
			defer cancel()
			done := fn(ctx)
			done.action = action
			return done
		}
	}

	switch msg := intent.(type) {
	case createProductMsg:
		return run(actionCreate, func(ctx context.Context) mutationDoneMsg {
			p, err := api.CreateProduct(ctx, msg.input)
			return mutationDoneMsg{product: p, err: err}
		})
	case updateStockMsg:
		return run(actionStock, func(ctx context.Context) mutationDoneMsg {
			if err := api.UpdateStock(ctx, msg.id, msg.stock); err != nil {
				return mutationDoneMsg{err: err}
			}
			p, err := api.FetchProduct(ctx, msg.id)
			if err != nil {
				// The write succeeded; the list catches up on the next poll.
				return mutationDoneMsg{}
			}
			return mutationDoneMsg{product: p}
		})
	case recordSaleMsg:
		return run(actionSale, func(ctx context.Context) mutationDoneMsg {
			return mutationDoneMsg{err: api.RecordSale(ctx, msg.input)}
		})
	case deleteProductMsg:
		return run(actionDelete, func(ctx context.Context) mutationDoneMsg {
			if err := api.DeleteProduct(ctx, msg.id); err != nil {
				return mutationDoneMsg{err: err}
			}
			return mutationDoneMsg{removedID: msg.id}
		})
	}
	return nil
}

var actionFailures = map[string]string{
	actionCreate: "Failed to add product",
	actionStock:  "Failed to update stock",
	actionSale:   "Failed to record sale",
	actionDelete: "Failed to delete product",
}

// handleMutationDone applies a finished write to the local state.
func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(actionFailures[msg.action], msg.err)
		return m, nil
	}

	var cmds []tea.Cmd
	switch msg.action {
	case actionCreate:
		m.setNotice("Product added successfully")
		m.currentView = ViewProducts
	case actionStock:
		m.setNotice("Stock updated successfully")
	case actionSale:
		m.setNotice("Sale recorded successfully")
		m.metrics.SaleRecorded()
		cmds = append(cmds, m.refreshProductsCmd())
		if m.salesMounted {
			if req, ok := m.sales.Refresh(); ok {
				m.selectedSale = 0
				cmds = append(cmds, m.fetchSalesCmd(req))
			}
		}
	case actionDelete:
		m.setNotice("Product deleted")
		if m.store != nil {
			m.store.Remove(msg.removedID)
		}
		if m.detail != nil && m.detail.ID == msg.removedID {
			m.detail = nil
		}
	}
	m.logger.Info("inventory updated", zap.String("action", msg.action))

	if msg.product != nil {
		p := *msg.product
		if m.store != nil {
			m.store.Upsert(p)
		}
		if m.detail != nil && m.detail.ID == p.ID {
			m.detail = &p
		}
	}
	cmds = append(cmds, fetchSnapshotCmd(m.store))
	return m, tea.Batch(cmds...)
}
