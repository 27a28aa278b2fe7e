// Package timewheel 实现了一个单层时间轮，用于调度延时任务，
// 例如阻塞式命令等待者的超时清理
package timewheel

import (
	"container/list"
	"raftis/lib/logger"
	"sync"
	"time"
)

type location struct {
	slot  int
	etask *list.Element
}

type TimeWheel struct {
	interval time.Duration
	ticker   *time.Ticker
	slots    []*list.List

	timer             map[string]*location
	currentPos        int
	slotNum           int // 时间槽个数
	addTaskChannel    chan *task
	removeTaskChannel chan string
	stopChannel       chan bool

	mu sync.Mutex
}

type task struct {
	delay  time.Duration
	circle int // 需要等待的圈数
	key    string
	job    func()
}

func New(interval time.Duration, slotNum int) *TimeWheel {
	if interval <= 0 || slotNum <= 0 {
		return nil
	}
	tw := &TimeWheel{
		interval:          interval,
		slots:             make([]*list.List, slotNum),
		timer:             make(map[string]*location),
		currentPos:        0,
		slotNum:           slotNum,
		addTaskChannel:    make(chan *task),
		removeTaskChannel: make(chan string),
		stopChannel:       make(chan bool),
	}
	for i := 0; i < slotNum; i++ {
		tw.slots[i] = list.New()
	}
	return tw
}

// ******************** 对外接口 ********************

func (tw *TimeWheel) Start() {
	tw.ticker = time.NewTicker(tw.interval)
	go tw.run()
}

func (tw *TimeWheel) Stop() {
	tw.stopChannel <- true
}

func (tw *TimeWheel) AddJob(delay time.Duration, key string, job func()) {
	if delay < 0 {
		return
	}
	tw.addTaskChannel <- &task{delay: delay, key: key, job: job}
}

func (tw *TimeWheel) RemoveJob(key string) {
	if key == "" {
		return
	}
	tw.removeTaskChannel <- key
}

// ******************** 轮转实现 ********************

func (tw *TimeWheel) run() {
	for {
		select {
		case <-tw.ticker.C:
			tw.tickHandler()
		case t := <-tw.addTaskChannel:
			tw.addTask(t)
		case key := <-tw.removeTaskChannel:
			tw.removeTask(key)
		case <-tw.stopChannel:
			tw.ticker.Stop()
			return
		}
	}
}

func (tw *TimeWheel) tickHandler() {
	tw.mu.Lock()
	l := tw.slots[tw.currentPos]
	if tw.currentPos == tw.slotNum-1 {
		tw.currentPos = 0
	} else {
		tw.currentPos++
	}

	// 取出本槽到期的任务
	var jobs []func()
	for e := l.Front(); e != nil; {
		t := e.Value.(*task)
		if t.circle > 0 {
			t.circle--
			e = e.Next()
			continue
		}
		jobs = append(jobs, t.job)
		if t.key != "" {
			delete(tw.timer, t.key)
		}
		next := e.Next()
		l.Remove(e)
		e = next
	}
	tw.mu.Unlock()

	for _, job := range jobs {
		go func(job func()) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error(err)
				}
			}()
			job()
		}(job)
	}
}

func (tw *TimeWheel) addTask(t *task) {
	pos, circle := tw.getPositionAndCircle(t.delay)
	t.circle = circle

	tw.mu.Lock()
	defer tw.mu.Unlock()

	// 该 key 已存在定时任务，移除旧的
	if t.key != "" {
		if _, ok := tw.timer[t.key]; ok {
			tw.removeTaskLocked(t.key)
		}
	}

	e := tw.slots[pos].PushBack(t)
	tw.timer[t.key] = &location{
		slot:  pos,
		etask: e,
	}
}

func (tw *TimeWheel) removeTask(key string) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.removeTaskLocked(key)
}

func (tw *TimeWheel) removeTaskLocked(key string) {
	pos, ok := tw.timer[key]
	if !ok {
		return
	}
	tw.slots[pos.slot].Remove(pos.etask)
	delete(tw.timer, key)
}

func (tw *TimeWheel) getPositionAndCircle(d time.Duration) (pos int, circle int) {
	delaySeconds := int(d.Seconds())
	intervalSeconds := int(tw.interval.Seconds())
	circle = delaySeconds / intervalSeconds / tw.slotNum
	pos = (tw.currentPos + delaySeconds/intervalSeconds) % tw.slotNum
	return
}
