// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func OrderWorkflow(ctx context.Context, id string) error  { return nil }
func RefundWorkflow(ctx context.Context, id string) error { return nil }
func AuditWorkflow(ctx context.Context) error             { return nil }

func SendEmail(ctx context.Context, to string) error { return nil }

type PaymentActivities struct{}

func (p *PaymentActivities) Charge(ctx context.Context, amount int) error { return nil }

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		want    string
		wantErr bool
	}{
		{name: "function", fn: OrderWorkflow, want: "OrderWorkflow"},
		{name: "method value", fn: (&PaymentActivities{}).Charge, want: "Charge"},
		{name: "struct pointer", fn: &PaymentActivities{}, want: "PaymentActivities"},
		{name: "struct value", fn: PaymentActivities{}, wantErr: true},
		{name: "nil", fn: nil, wantErr: true},
		{name: "string", fn: "OrderWorkflow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.fn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Register(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.RegisterWorkflow(OrderWorkflow))
	require.NoError(t, c.RegisterWorkflowWithName("refund", RefundWorkflow))
	require.NoError(t, c.RegisterActivity(SendEmail))
	require.NoError(t, c.RegisterActivity(&PaymentActivities{}))

	assert.Equal(t, []string{"OrderWorkflow", "refund"}, c.WorkflowNames())
	assert.Equal(t, []string{"SendEmail", "PaymentActivities"}, c.ActivityNames())

	assert.ErrorContains(t, c.RegisterWorkflow(OrderWorkflow), "already registered")
	assert.Error(t, c.RegisterWorkflowWithName("", AuditWorkflow))
	assert.Error(t, c.RegisterWorkflowWithName("bad", &PaymentActivities{}))
	assert.Error(t, c.RegisterActivity(42))

	activities := c.Activities()
	assert.False(t, activities[0].IsStruct())
	assert.True(t, activities[1].IsStruct())
}

func TestMerge(t *testing.T) {
	base := NewCatalog()
	require.NoError(t, base.RegisterWorkflow(OrderWorkflow))
	require.NoError(t, base.RegisterActivity(SendEmail))

	optional := NewCatalog()
	require.NoError(t, optional.RegisterWorkflow(RefundWorkflow))
	require.NoError(t, optional.RegisterWorkflow(AuditWorkflow))
	require.NoError(t, optional.RegisterWorkflowWithName("OrderWorkflow", RefundWorkflow))
	require.NoError(t, optional.RegisterActivity(&PaymentActivities{}))

	t.Run("adds_named_entries", func(t *testing.T) {
		merged, err := Merge(base, optional, []string{"AuditWorkflow"}, []string{"PaymentActivities"})
		require.NoError(t, err)
		assert.Equal(t, []string{"OrderWorkflow", "AuditWorkflow"}, merged.WorkflowNames())
		assert.Equal(t, []string{"SendEmail", "PaymentActivities"}, merged.ActivityNames())
	})

	t.Run("base_wins_on_duplicate", func(t *testing.T) {
		merged, err := Merge(base, optional, []string{"OrderWorkflow", "AuditWorkflow", "AuditWorkflow"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"OrderWorkflow", "AuditWorkflow"}, merged.WorkflowNames())

		first := merged.Workflows()[0]
		name, err := Name(first.Fn)
		require.NoError(t, err)
		assert.Equal(t, "OrderWorkflow", name)
	})

	t.Run("unknown_names", func(t *testing.T) {
		_, err := Merge(base, optional, []string{"Ghost", "Phantom"}, nil)
		assert.ErrorContains(t, err, "unknown workflows Ghost, Phantom")

		_, err = Merge(base, optional, nil, []string{"Nope"})
		assert.ErrorContains(t, err, "unknown activities Nope")
	})

	t.Run("nothing_configured", func(t *testing.T) {
		merged, err := Merge(base, optional, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, base.WorkflowNames(), merged.WorkflowNames())
		assert.Equal(t, base.ActivityNames(), merged.ActivityNames())
	})
}

func TestPackageRegistration(t *testing.T) {
	RegisterWorkflow(AuditWorkflow)
	ProvideActivity(&PaymentActivities{})

	assert.Contains(t, Default.WorkflowNames(), "AuditWorkflow")
	assert.Panics(t, func() { RegisterWorkflow(AuditWorkflow) })

	resolved, err := Resolve(nil, []string{"PaymentActivities"})
	require.NoError(t, err)
	assert.Contains(t, resolved.WorkflowNames(), "AuditWorkflow")
	assert.Contains(t, resolved.ActivityNames(), "PaymentActivities")
}
