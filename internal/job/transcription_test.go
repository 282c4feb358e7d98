package job

import "testing"

func TestBroadcaster_SubscribeReplaysPriorSegments(t *testing.T) {
	b := NewBroadcaster()
	b.Open("job1")
	b.Publish("job1", Segment{Text: "hello"})
	b.Publish("job1", Segment{Text: "world"})

	ch, unsubscribe := b.Subscribe("job1")
	defer unsubscribe()

	first := <-ch
	second := <-ch
	if first.Text != "hello" || second.Text != "world" {
		t.Fatalf("expected replay in production order, got %q then %q", first.Text, second.Text)
	}
}

func TestBroadcaster_LiveSegmentDeliveredAfterSubscribe(t *testing.T) {
	b := NewBroadcaster()
	b.Open("job1")
	ch, unsubscribe := b.Subscribe("job1")
	defer unsubscribe()

	b.Publish("job1", Segment{Text: "live"})
	seg := <-ch
	if seg.Text != "live" {
		t.Fatalf("expected live segment, got %q", seg.Text)
	}
}

func TestBroadcaster_CloseClosesSubscriberChannel(t *testing.T) {
	b := NewBroadcaster()
	b.Open("job1")
	ch, _ := b.Subscribe("job1")
	b.Close("job1")
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after Close")
	}
}

func TestBroadcaster_MarkStoppedReportsStopped(t *testing.T) {
	b := NewBroadcaster()
	topic := b.Open("job1")
	b.MarkStopped("job1")
	if !topic.Stopped() {
		t.Fatalf("expected topic to report stopped after MarkStopped")
	}
}

func TestBroadcaster_PublishAfterCloseIsNoop(t *testing.T) {
	b := NewBroadcaster()
	b.Open("job1")
	b.Close("job1")
	b.Publish("job1", Segment{Text: "too late"})
}
