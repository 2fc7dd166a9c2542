package log

import "testing"

func TestLoggerSubscribeReceivesEntry(t *testing.T) {
	l := New()
	defer l.Close()

	ch, cancel := l.Subscribe()
	defer cancel()

	l.Info().Src("test").Msg("hello")

	e := <-ch
	if e.Src != "test" || e.Msg != "hello" || e.Level != LevelInfo {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestLoggerCloseClosesSubscriptions(t *testing.T) {
	l := New()
	ch, _ := l.Subscribe()
	l.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected subscription channel to be closed")
	}
}
