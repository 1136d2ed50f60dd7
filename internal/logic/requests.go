package logic

import (
	"fmt"
	"time"

	"github.com/blues/pfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// issueRevealRequest 创建一条揭示请求记录。
// 请求标识由自增主键分配，永不复用；context由预言机原样回传。
func issueRevealRequest(tx *gorm.DB, campaignId int64, requester common.Address,
	kind model.RevealRequestKind, context []byte,
	payload1, payload2 []byte, now time.Time) (*model.RevealRequestModel, error) {

	req := &model.RevealRequestModel{
		CampaignId:       campaignId,
		RequesterAddress: requester.Hex(),
		Kind:             kind,
		Context:          context,
		Payload1:         payload1,
		Payload2:         payload2,
		IssuedAt:         now,
	}
	if err := tx.Create(req).Error; err != nil {
		return nil, fmt.Errorf("创建揭示请求失败: %w", err)
	}
	return req, nil
}

// loadRevealRequest 加载揭示请求
func loadRevealRequest(db *gorm.DB, requestId int64) (*model.RevealRequestModel, error) {
	var req model.RevealRequestModel
	if err := db.First(&req, requestId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 揭示请求 %d", ErrNotFound, requestId)
		}
		return nil, fmt.Errorf("查询揭示请求失败: %w", err)
	}
	return &req, nil
}
