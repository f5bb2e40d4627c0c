package pipeline

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPipeline(t *testing.T) {
	Convey("Given a pipeline with room for three values", t, func() {
		Convey("When values are sent within capacity", func() {
			p := New[int](3, DropOldest)
			So(p.Send(1), ShouldBeNil)
			So(p.Send(2), ShouldBeNil)

			Convey("They are drained in FIFO order", func() {
				So(p.Drain(0), ShouldResemble, []int{1, 2})
				So(p.Len(), ShouldEqual, 0)
				So(p.Sent(), ShouldEqual, 2)
			})
		})

		Convey("When the drop-oldest buffer overflows", func() {
			p := New[int](3, DropOldest)
			for i := 1; i <= 5; i++ {
				So(p.Send(i), ShouldBeNil)
			}

			Convey("The oldest values are discarded and the newest kept", func() {
				So(p.Drain(0), ShouldResemble, []int{3, 4, 5})
				So(p.Dropped(), ShouldEqual, 2)
			})
		})

		Convey("When the drop-newest buffer overflows", func() {
			p := New[int](3, DropNewest)
			for i := 1; i <= 3; i++ {
				So(p.Send(i), ShouldBeNil)
			}
			So(p.Send(4), ShouldEqual, ErrFull)

			Convey("The new value is rejected and the buffer unchanged", func() {
				So(p.Drain(0), ShouldResemble, []int{1, 2, 3})
				So(p.Dropped(), ShouldEqual, 1)
			})
		})

		Convey("When Drain is bounded", func() {
			p := New[int](3, DropOldest)
			_ = p.Send(1)
			_ = p.Send(2)
			_ = p.Send(3)
			So(p.Drain(2), ShouldResemble, []int{1, 2})
			So(p.Drain(2), ShouldResemble, []int{3})
			So(p.Drain(2), ShouldBeEmpty)
		})

		Convey("When the consumer closes its end", func() {
			p := New[int](3, DropOldest)
			p.Close()
			p.Close()

			Convey("Sends report ErrSinkClosed and buffer nothing", func() {
				So(p.Closed(), ShouldBeTrue)
				So(p.Send(1), ShouldEqual, ErrSinkClosed)
				So(p.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the producer seals the pipeline", func() {
			p := New[int](3, DropOldest)
			_ = p.Send(7)
			p.CloseSink()
			p.CloseSink()

			Convey("Buffered values remain readable, then the channel reports closure", func() {
				So(p.Send(8), ShouldEqual, ErrSinkClosed)
				v, ok := <-p.C()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 7)
				_, ok = <-p.C()
				So(ok, ShouldBeFalse)
				So(p.Drain(0), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a producer and consumer running concurrently", t, func() {
		p := New[int](16, DropOldest)
		const total = 2000

		var wg sync.WaitGroup
		wg.Add(1)
		var received []int
		go func() {
			defer wg.Done()
			for v := range p.C() {
				received = append(received, v)
			}
		}()
		for i := 0; i < total; i++ {
			_ = p.Send(i)
		}
		p.CloseSink()
		wg.Wait()

		Convey("Every value is either delivered in order or counted as dropped", func() {
			So(uint64(len(received))+p.Dropped(), ShouldEqual, total)
			for i := 1; i < len(received); i++ {
				So(received[i], ShouldBeGreaterThan, received[i-1])
			}
		})
	})

	Convey("ParsePolicy accepts the configuration spellings", t, func() {
		pol, err := ParsePolicy("drop-newest")
		So(err, ShouldBeNil)
		So(pol, ShouldEqual, DropNewest)
		pol, err = ParsePolicy("")
		So(err, ShouldBeNil)
		So(pol, ShouldEqual, DropOldest)
		_, err = ParsePolicy("block")
		So(err, ShouldNotBeNil)
		So(DropOldest.String(), ShouldEqual, "drop-oldest")
	})
}
