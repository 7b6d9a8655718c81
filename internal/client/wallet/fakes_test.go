package wallet

import (
	"context"
	"encoding/json"
)

type fakeProvider struct {
	name      string
	reject    bool
	onRequest func(method string)
	methods   []string
	closed    int
}

func (f *fakeProvider) Request(_ context.Context, method string, _ ...any) (json.RawMessage, error) {
	f.methods = append(f.methods, method)
	if f.onRequest != nil {
		f.onRequest(method)
	}
	if method == MethodRequestAccounts && f.reject {
		return nil, ErrUserRejected
	}
	return json.RawMessage(`["0x0000000000000000000000000000000000000001"]`), nil
}

func optionFor(p *fakeProvider) ProviderOption {
	return ProviderOption{
		Display: p.name,
		Open: func(context.Context) (RawProvider, error) {
			return p, nil
		},
	}
}

func detectorFor(p *fakeProvider) Detector {
	return func() (ProviderOption, bool) { return optionFor(p), true }
}

func approveAll(context.Context, string) (bool, error) { return true, nil }

func denyAll(context.Context, string) (bool, error) { return false, nil }

func (f *fakeProvider) Close() { f.closed++ }
