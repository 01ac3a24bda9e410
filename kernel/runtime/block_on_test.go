package runtime

import "testing"

func TestBlockOnDrivesFutureToCompletion(t *testing.T) {
	f := &countingFuture{readyAfter: 5}
	got := BlockOn[int](f)
	if got != 5 || f.polls != 5 {
		t.Fatalf("expected BlockOn to poll until ready; got value=%d polls=%d", got, f.polls)
	}
}
