package mocks

import (
	"context"

	"github.com/ipatlas/ipatlas/internal/model"
)

// IPRangeProvider allows mocking a model.IPRangeProvider.
type IPRangeProvider struct {
	MockName   func() string
	MockParse  func(ctx context.Context, resolver model.AreaResolver) ([]model.IPRangeLocation, error)
	MockReport func() model.ProviderReport
}

var _ model.IPRangeProvider = &IPRangeProvider{}

// Name calls MockName.
func (p *IPRangeProvider) Name() string {
	return p.MockName()
}

// Parse calls MockParse.
func (p *IPRangeProvider) Parse(ctx context.Context, resolver model.AreaResolver) ([]model.IPRangeLocation, error) {
	return p.MockParse(ctx, resolver)
}

// Report calls MockReport.
func (p *IPRangeProvider) Report() model.ProviderReport {
	return p.MockReport()
}
