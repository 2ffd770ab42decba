package httpapi

import "testing"

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetMaxAudioBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxAudioBytes(-1)
	if maxAudioBytes != 64<<20 {
		t.Fatalf("expected default 64MiB, got %d", maxAudioBytes)
	}
	SetMaxAudioBytes(0)
	if maxAudioBytes != 64<<20 {
		t.Fatalf("expected default 64MiB on zero, got %d", maxAudioBytes)
	}
}

func TestSetMaxAudioBytes_PositiveSetsValue(t *testing.T) {
	defer SetMaxAudioBytes(0)
	SetMaxAudioBytes(2048)
	if maxAudioBytes != 2048 {
		t.Fatalf("expected 2048, got %d", maxAudioBytes)
	}
}

func TestSetMaxTranscriptions_ReplacesSemaphore(t *testing.T) {
	defer SetMaxTranscriptions(0)

	SetMaxTranscriptions(3)
	for i := 0; i < 3; i++ {
		if !transcribeSem.TryAcquire(1) {
			t.Fatalf("acquire %d failed below the limit", i)
		}
	}
	if transcribeSem.TryAcquire(1) {
		t.Fatal("acquire succeeded beyond the limit")
	}
	transcribeSem.Release(3)

	// Non-positive restores the default of four slots.
	SetMaxTranscriptions(-1)
	if !transcribeSem.TryAcquire(4) {
		t.Fatal("default semaphore should hold four slots")
	}
	if transcribeSem.TryAcquire(1) {
		t.Fatal("default semaphore should hold exactly four slots")
	}
	transcribeSem.Release(4)
}
