// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

package host

import (
	"context"
)

const (
	volumeManagerEndpoint = "volume-manager"

	methodVolumeAdd    = "volume_manager.VolumeAdd"
	methodVolumeRemove = "volume_manager.VolumeRemove"
	methodVolumeList   = "volume_manager.VolumeList"
)

type VolumeAddRequest struct {
	Labels map[string]string `cbor:"labels"`
}

type VolumeAddResponse struct {
	ID string `cbor:"id"`
}

type VolumeRemoveRequest struct {
	Labels map[string]string `cbor:"labels"`
}

type VolumeListRequest struct {
	Labels map[string]string `cbor:"labels,omitempty"`
}

type VolumeInfo struct {
	ID     string            `cbor:"id"`
	Labels map[string]string `cbor:"labels,omitempty"`
}

type VolumeListResponse struct {
	Volumes []VolumeInfo `cbor:"volumes"`
}

// VolumeManager manages persistent storage volumes on the host.
type VolumeManager interface {
	VolumeAdd(ctx context.Context, args VolumeAddRequest) (VolumeAddResponse, error)
	VolumeRemove(ctx context.Context, args VolumeRemoveRequest) error
	VolumeList(ctx context.Context, args VolumeListRequest) (VolumeListResponse, error)
}

type volumeManager struct {
	transport Transport
}

func (m *volumeManager) VolumeAdd(ctx context.Context, args VolumeAddRequest) (VolumeAddResponse, error) {
	return hostRPCCall[VolumeAddRequest, VolumeAddResponse](ctx, m.transport, volumeManagerEndpoint, methodVolumeAdd, args)
}

func (m *volumeManager) VolumeRemove(ctx context.Context, args VolumeRemoveRequest) error {
	_, err := hostRPCCall[VolumeRemoveRequest, unit](ctx, m.transport, volumeManagerEndpoint, methodVolumeRemove, args)
	return err
}

func (m *volumeManager) VolumeList(ctx context.Context, args VolumeListRequest) (VolumeListResponse, error) {
	return hostRPCCall[VolumeListRequest, VolumeListResponse](ctx, m.transport, volumeManagerEndpoint, methodVolumeList, args)
}
