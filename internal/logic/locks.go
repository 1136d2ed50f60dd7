package logic

import (
	"sync"
)

// 协议的正确性依赖单写者串行执行模型；
// 宿主环境（HTTP+定时任务）是并行的，这里用按活动的互斥锁复现该语义。
var campaignLocks sync.Map

// lockCampaign 锁定指定活动，返回解锁函数
func lockCampaign(campaignId int64) func() {
	v, _ := campaignLocks.LoadOrStore(campaignId, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
