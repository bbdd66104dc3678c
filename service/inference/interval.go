package inference

type intervalService struct {
	k int
}

// NewInterval samples one frame out of every k: frames k, 2k, 3k... go
// through the detector. k below 1 is treated as 1 (sample everything).
func NewInterval(k int) IService {
	if k < 1 {
		k = 1
	}
	return &intervalService{k: k}
}

func (svc *intervalService) CanSkipFrame(frames int) bool {
	return frames%svc.k != 0
}

func (svc *intervalService) Interval() int {
	return svc.k
}
