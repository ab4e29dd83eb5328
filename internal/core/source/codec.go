package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	pkgErrors "gsource-auth/pkg/errors"
)

// encMode CBOR 确定性编码，相同快照总是得到相同字节
var encMode cbor.EncMode

// decMode 忽略未知字段，便于前向兼容
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("source: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("source: CBOR decoder initialization failed: " + err.Error())
	}
}

// wireCredential (credentials_id, strategy, module) 线上表示
type wireCredential struct {
	CredentialsID string      `cbor:"credentials_id" json:"credentials_id"`
	Strategy      string      `cbor:"strategy" json:"strategy"`
	Module        *wireModule `cbor:"module,omitempty" json:"-"`
}

// wireModule 快照状态：用户名与远端凭据
type wireModule struct {
	Identity string       `cbor:"identity"`
	Remote   *RemoteToken `cbor:"remote"`
}

// EncodeRemote 编码为可交给远端执行环境的快照，Live 形态会先转换为快照
func EncodeRemote(ctx context.Context, t *TranslatedCredential) ([]byte, error) {
	snap, err := ForRemote(ctx, t)
	if err != nil {
		return nil, err
	}
	remote, ok := snap.snapshot.remote.(*RemoteToken)
	if !ok {
		return nil, pkgErrors.New(pkgErrors.CodeCodecError,
			fmt.Sprintf("远端凭据类型 %T 不支持序列化", snap.snapshot.remote))
	}
	data, err := encMode.Marshal(wireCredential{
		CredentialsID: snap.credentialsID,
		Strategy:      snap.strategy.Name(),
		Module: &wireModule{
			Identity: snap.snapshot.identity,
			Remote:   remote,
		},
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "编码远端快照失败", err)
	}
	return data, nil
}

// Decode 从线上表示恢复桥接凭据
//
// 宿主可以访问凭据仓库时忽略快照状态，返回 Live 形态；
// 否则原样恢复快照，不访问仓库。
func Decode(data []byte, host Host) (*TranslatedCredential, error) {
	var w wireCredential
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "解码远端快照失败", err)
	}
	return fromWire(w, host)
}

func fromWire(w wireCredential, host Host) (*TranslatedCredential, error) {
	if w.CredentialsID == "" {
		return nil, pkgErrors.New(pkgErrors.CodeCodecError, "缺少 credentials_id")
	}
	strategy, err := ParseStrategy(w.Strategy)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "无法识别的策略", err)
	}
	if host.HasStore() {
		return NewLiveCredential(w.CredentialsID, strategy, host), nil
	}
	if w.Module == nil || w.Module.Remote == nil {
		return nil, pkgErrors.New(pkgErrors.CodeCodecError,
			fmt.Sprintf("凭据 %q 缺少快照状态，当前执行环境无法解析", w.CredentialsID))
	}
	return newSnapshotCredential(w.CredentialsID, strategy, w.Module.Identity, w.Module.Remote), nil
}

// MarshalPersistent 持久化表示，只保存 ID 与策略，每次加载后重新解析
func MarshalPersistent(t *TranslatedCredential) ([]byte, error) {
	return json.Marshal(wireCredential{
		CredentialsID: t.credentialsID,
		Strategy:      t.strategy.Name(),
	})
}

// UnmarshalPersistent 从持久化表示恢复 Live 凭据
func UnmarshalPersistent(data []byte, host Host) (*TranslatedCredential, error) {
	var w wireCredential
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "解析持久化凭据失败", err)
	}
	if w.CredentialsID == "" {
		return nil, pkgErrors.New(pkgErrors.CodeCodecError, "缺少 credentials_id")
	}
	strategy, err := ParseStrategy(w.Strategy)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "无法识别的策略", err)
	}
	return NewLiveCredential(w.CredentialsID, strategy, host), nil
}
