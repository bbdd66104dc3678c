package inference

// IService decides which frames go through the detector. frames is the
// 1-based count of frames read so far.
type IService interface {
	CanSkipFrame(frames int) bool
	Interval() int
}
