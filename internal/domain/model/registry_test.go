package model

import "testing"

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"notified is valid", StatusNotified, true},
		{"active is valid", StatusActive, true},
		{"inactive is valid", StatusInactive, true},
		{"deleted is valid", StatusDeleted, true},
		{"error is valid", StatusError, true},
		{"empty string is invalid", Status(""), false},
		{"unknown status is invalid", Status("published"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlatform_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		want     bool
	}{
		{"facebook is valid", PlatformFacebook, true},
		{"youtube is valid", PlatformYouTube, true},
		{"youtube_direct is valid", PlatformYouTubeDirect, true},
		{"empty string is invalid", Platform(""), false},
		{"unknown platform is invalid", Platform("vimeo"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.platform.IsValid(); got != tt.want {
				t.Errorf("Platform.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistryEntry_MarkActive(t *testing.T) {
	tests := []struct {
		name          string
		targetVideoID string
		wantErr       error
	}{
		{"with target platform video id", "567", nil},
		{"without target platform video id", "", ErrMissingTargetVideoID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &RegistryEntry{
				RegistryID:            "reg-1",
				Status:                StatusNotified,
				IntermediateState:     IntermediateUploading,
				TargetPlatformVideoID: tt.targetVideoID,
			}

			err := entry.MarkActive()

			if err != tt.wantErr {
				t.Fatalf("MarkActive() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if entry.Status != StatusNotified {
					t.Errorf("MarkActive() changed status on error: %v", entry.Status)
				}
				return
			}
			if entry.Status != StatusActive {
				t.Errorf("MarkActive() status = %v, want %v", entry.Status, StatusActive)
			}
			if entry.IntermediateState != IntermediateNone {
				t.Errorf("MarkActive() intermediate state = %q, want cleared", entry.IntermediateState)
			}
		})
	}
}

func TestRegistryEntry_MarkFailed(t *testing.T) {
	entry := &RegistryEntry{
		RegistryID:        "reg-1",
		Status:            StatusNotified,
		IntermediateState: IntermediateDownloading,
	}

	entry.MarkFailed("download failed | connection refused")

	if entry.Status != StatusError {
		t.Errorf("MarkFailed() status = %v, want %v", entry.Status, StatusError)
	}
	if entry.IntermediateState != IntermediateDownloading {
		t.Errorf("MarkFailed() intermediate state = %q, want kept as %q",
			entry.IntermediateState, IntermediateDownloading)
	}
	if entry.Message != "download failed | connection refused" {
		t.Errorf("MarkFailed() message = %q", entry.Message)
	}
}

func TestRegistryEntry_MarkInactiveAndDeleted(t *testing.T) {
	entry := &RegistryEntry{
		Status:                StatusActive,
		IntermediateState:     IntermediateUnpublishing,
		TargetPlatformVideoID: "567",
	}

	entry.MarkInactive()
	if entry.Status != StatusInactive || entry.IntermediateState != IntermediateNone {
		t.Errorf("MarkInactive() = %v/%q, want inactive with cleared intermediate state",
			entry.Status, entry.IntermediateState)
	}

	entry.IntermediateState = IntermediateDeleting
	entry.MarkDeleted()
	if entry.Status != StatusDeleted || entry.IntermediateState != IntermediateNone {
		t.Errorf("MarkDeleted() = %v/%q, want deleted with cleared intermediate state",
			entry.Status, entry.IntermediateState)
	}
	if entry.TargetPlatformVideoID != "567" {
		t.Error("MarkDeleted() must keep the target platform video id")
	}
}
