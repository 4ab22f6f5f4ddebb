package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/guimove/placefit/internal/config"
	"github.com/guimove/placefit/internal/metrics"
	"github.com/guimove/placefit/internal/metrics/mocks"
	"github.com/guimove/placefit/internal/model"
)

type sourceTestSuite struct {
	suite.Suite

	ctrl   *gomock.Controller
	source *mocks.MockInventorySource
	cfg    config.Config
	out    *bytes.Buffer
	orch   *Orchestrator
}

func (suite *sourceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockInventorySource(suite.ctrl)
	suite.source.EXPECT().BackendType().Return("kubernetes").AnyTimes()

	suite.cfg = config.Default()
	suite.cfg.Inventory.Source = config.SourceKubernetes
	suite.cfg.Kubernetes.Namespace = "shop"
	suite.cfg.Kubernetes.NodeSelector = "pool=general"
	suite.cfg.Output.Format = "json"

	suite.out = &bytes.Buffer{}
	suite.orch = &Orchestrator{
		Source: suite.source,
		Config: suite.cfg,
		Writer: suite.out,
	}
}

func (suite *sourceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func TestSourceTestSuite(t *testing.T) {
	suite.Run(t, new(sourceTestSuite))
}

func (suite *sourceTestSuite) TestCollectPassesOptions() {
	collected := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := &model.Inventory{
		CollectedAt: collected,
		Source:      "kubernetes",
		Dimensions:  []string{"cpu", "memory"},
		Services:    []model.Service{{ID: "shop/cart", Demand: model.ResourceVector{0.5, 1}}},
		Servers:     []model.Server{{ID: "node-a", Capacity: model.ResourceVector{4, 16}}},
	}

	gomock.InOrder(
		suite.source.EXPECT().Ping(gomock.Any()).Return(nil),
		suite.source.EXPECT().
			Collect(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, opts metrics.CollectOptions) (*model.Inventory, error) {
				suite.Equal("shop", opts.Namespace)
				suite.Equal("pool=general", opts.NodeSelector)
				suite.Equal([]string{"cpu", "memory"}, opts.Dimensions)
				suite.Equal(0.95, opts.Percentile)
				return inv, nil
			}),
	)

	rep, err := suite.orch.Place(context.Background())
	suite.NoError(err)
	suite.Equal(1, rep.PlacedCount())
	suite.Contains(suite.out.String(), `"backend": "kubernetes"`)
	suite.Contains(suite.out.String(), `"collected_at": "2026-03-01T12:00:00Z"`)
}

func (suite *sourceTestSuite) TestPingFailureStopsRun() {
	unreachable := errors.New("connection refused")
	suite.source.EXPECT().Ping(gomock.Any()).Return(unreachable)

	_, err := suite.orch.Place(context.Background())
	suite.ErrorIs(err, unreachable)
	suite.Empty(suite.out.String())
}

func (suite *sourceTestSuite) TestCollectFailure() {
	suite.source.EXPECT().Ping(gomock.Any()).Return(nil)
	suite.source.EXPECT().Collect(gomock.Any(), gomock.Any()).Return(nil, metrics.ErrNoMetricsFound)

	_, err := suite.orch.WhatIf(context.Background())
	suite.ErrorIs(err, metrics.ErrNoMetricsFound)
}
