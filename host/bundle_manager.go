// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package host

import (
	"context"

	pb "github.com/signalapp/hostbridge/proto"
)

const (
	bundleManagerEndpoint = "bundle-manager"

	methodBundleAdd    = "bundle_manager.BundleAdd"
	methodBundleRemove = "bundle_manager.BundleRemove"
	methodBundleList   = "bundle_manager.BundleList"
)

// BundleAddRequest asks the host to add a bundle it has already received
// under a temporary name.
type BundleAddRequest struct {
	TemporaryName string            `cbor:"temporary_name"`
	ManifestHash  pb.Hash           `cbor:"manifest_hash"`
	Labels        map[string]string `cbor:"labels,omitempty"`
}

// BundleRemoveRequest removes all bundles matching the labels.
type BundleRemoveRequest struct {
	Labels map[string]string `cbor:"labels"`
}

// BundleListRequest lists bundles matching the labels.
type BundleListRequest struct {
	Labels map[string]string `cbor:"labels,omitempty"`
}

// BundleInfo describes a bundle known to the host.
type BundleInfo struct {
	ManifestHash pb.Hash           `cbor:"manifest_hash"`
	Components   []string          `cbor:"components,omitempty"`
	Labels       map[string]string `cbor:"labels,omitempty"`
}

// BundleListResponse is the result of BundleList.
type BundleListResponse struct {
	Bundles []BundleInfo `cbor:"bundles"`
}

// BundleManager manages the component bundles available on the host.
type BundleManager interface {
	BundleAdd(ctx context.Context, args BundleAddRequest) error
	BundleRemove(ctx context.Context, args BundleRemoveRequest) error
	BundleList(ctx context.Context, args BundleListRequest) (BundleListResponse, error)
}

type bundleManager struct {
	transport Transport
}

// unit is the result of methods that return nothing.
type unit struct{}

func (m *bundleManager) BundleAdd(ctx context.Context, args BundleAddRequest) error {
	_, err := hostRPCCall[BundleAddRequest, unit](ctx, m.transport, bundleManagerEndpoint, methodBundleAdd, args)
	return err
}

func (m *bundleManager) BundleRemove(ctx context.Context, args BundleRemoveRequest) error {
	_, err := hostRPCCall[BundleRemoveRequest, unit](ctx, m.transport, bundleManagerEndpoint, methodBundleRemove, args)
	return err
}

func (m *bundleManager) BundleList(ctx context.Context, args BundleListRequest) (BundleListResponse, error) {
	return hostRPCCall[BundleListRequest, BundleListResponse](ctx, m.transport, bundleManagerEndpoint, methodBundleList, args)
}
