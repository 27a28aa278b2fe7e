package timewheel

import "time"

// 进程级默认时间轮，精度 1 秒
var tw = New(time.Second, 3600)

func init() {
	tw.Start()
}

// Delay 在 duration 之后执行 job
func Delay(duration time.Duration, key string, job func()) {
	tw.AddJob(duration, key, job)
}

// At 在指定时间点执行 job
func At(at time.Time, key string, job func()) {
	tw.AddJob(time.Until(at), key, job)
}

// Cancel 取消 key 对应的定时任务
func Cancel(key string) {
	tw.RemoveJob(key)
}
